package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeriesSortsYears(t *testing.T) {
	s, err := NewSeries(map[int]Value{
		2018: Real(128400),
		2013: Real(113700),
		2015: Real(118500),
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2013, 2015, 2018}, s.Years())
	assert.Equal(t, 2013, s.FirstYear())
}

func TestNewSeriesRejectsEmpty(t *testing.T) {
	_, err := NewSeries(map[int]Value{})
	require.Error(t, err)
}

func TestSeriesForwardFill(t *testing.T) {
	s := MustSeries(map[int]Value{
		2013: Real(113700),
		2017: Real(127200),
	})

	// Exact years
	v, ok := s.At(2013)
	require.True(t, ok)
	assert.Equal(t, Real(113700), v)

	// Gap years carry the latest earlier value forward
	v, ok = s.At(2015)
	require.True(t, ok)
	assert.Equal(t, Real(113700), v)

	// Beyond the last specified year the value holds indefinitely
	v, ok = s.At(2030)
	require.True(t, ok)
	assert.Equal(t, Real(127200), v)
}

func TestSeriesBeforeFirstYear(t *testing.T) {
	s := MustSeries(map[int]Value{2013: Real(0.038)})

	_, ok := s.At(2012)
	assert.False(t, ok)
}

func TestSeriesExplicit(t *testing.T) {
	s := MustSeries(map[int]Value{
		2013: Real(113700),
		2017: Real(127200),
	})

	v, ok := s.Explicit(2017)
	require.True(t, ok)
	assert.Equal(t, Real(127200), v)

	_, ok = s.Explicit(2015)
	assert.False(t, ok)
}

func TestSeriesCopiesVectorValues(t *testing.T) {
	vec := Vector{Real(6100), Real(12200)}
	s := MustSeries(map[int]Value{2013: vec})

	// Mutating the caller's vector never reaches the series
	vec[0] = Real(0)

	v, ok := s.At(2013)
	require.True(t, ok)
	assert.Equal(t, Vector{Real(6100), Real(12200)}, v)

	// Mutating a returned value never reaches the series either
	v.(Vector)[1] = Real(0)
	again, _ := s.At(2013)
	assert.Equal(t, Vector{Real(6100), Real(12200)}, again)
}
