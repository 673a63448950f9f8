package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunID_ReturnsSameID(t *testing.T) {
	gen := NewFixedRunID("test-run-123")

	// Multiple calls return same ID
	assert.Equal(t, "test-run-123", gen.Generate())
	assert.Equal(t, "test-run-123", gen.Generate())
	assert.Equal(t, "test-run-123", gen.Generate())
}

func TestFixedRunID_EmptyIDDefault(t *testing.T) {
	gen := NewFixedRunID("")

	// Empty ID uses default
	assert.Equal(t, "test-run-default", gen.Generate())
}

func TestFixedRunID_ThreadSafe(t *testing.T) {
	gen := NewFixedRunID("thread-safe-run")

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				assert.Equal(t, "thread-safe-run", id)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
