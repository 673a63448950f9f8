package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: smallest useful scenario
documents:
  r.json: |
    {"policy": {"NIIT_rt": {"2020": [0.1]}}}
years: "2020"
expect:
  valid: true
`

func TestParseScenarioMinimal(t *testing.T) {
	sc, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", sc.Name)
	// A single document becomes the request implicitly.
	assert.Equal(t, "r.json", sc.Request)
	assert.Equal(t, "2020", sc.Years)
	require.NotNil(t, sc.Expect.Valid)
	assert.True(t, *sc.Expect.Valid)
}

func TestParseScenarioUnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: has a misspelled key
documents:
  r.json: '{"policy": {}}'
years: "2020"
expects:
  valid: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects")
}

func TestParseScenarioRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing name",
			`
description: d
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect: {valid: true}
`,
			"name is required",
		},
		{
			"missing description",
			`
name: n
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect: {valid: true}
`,
			"description is required",
		},
		{
			"no documents",
			`
name: n
description: d
years: "2020"
expect: {valid: true}
`,
			"documents map is required",
		},
		{
			"empty document body",
			`
name: n
description: d
documents: {r.json: ""}
years: "2020"
expect: {valid: true}
`,
			"body is empty",
		},
		{
			"request needed with several documents",
			`
name: n
description: d
documents: {a.json: '{"policy": {}}', b.json: '{"policy": {}}'}
years: "2020"
expect: {valid: true}
`,
			"request is required",
		},
		{
			"request not a document",
			`
name: n
description: d
documents: {a.json: '{"policy": {}}'}
request: z.json
years: "2020"
expect: {valid: true}
`,
			"is not a key of documents",
		},
		{
			"missing years",
			`
name: n
description: d
documents: {r.json: '{"policy": {}}'}
expect: {valid: true}
`,
			"years is required",
		},
		{
			"empty expect block",
			`
name: n
description: d
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect: {}
`,
			"must assert something",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenarioExpectationConsistency(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"unknown chain error kind",
			`
name: n
description: d
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect: {chain_error: tangled}
`,
			"unknown kind",
		},
		{
			"chain error excludes values",
			`
name: n
description: d
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect:
  chain_error: cyclic
  values:
    - {param: NIIT_rt, year: 2020, value: 0.1}
`,
			"excludes all other expectations",
		},
		{
			"value missing year",
			`
name: n
description: d
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect:
  values:
    - {param: NIIT_rt, value: 0.1}
`,
			"year is required",
		},
		{
			"violation missing code",
			`
name: n
description: d
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect:
  violations:
    - {param: NIIT_rt}
`,
			"code is required",
		},
		{
			"negative violation count",
			`
name: n
description: d
documents: {r.json: '{"policy": {}}'}
years: "2020"
expect: {violation_count: -1}
`,
			"must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario file")
}
