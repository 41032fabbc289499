package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioHeader = `
name: test
genesis:
  sequence: 0
  system_state:
    next_committee:
      epoch: 0
      validators:
        - name: v1
          stake: 100
    next_protocol:
      version: 1
      max_input_objects: 16
      max_gas_budget: 1000000
    next_vm_config:
      bytecode_version: 1
    next_gas_price: 100
`

func TestParseScenario_Valid(t *testing.T) {
	scenario, err := ParseScenario([]byte(scenarioHeader + `
checkpoints:
  - transactions:
      - op: mutate
        signer: alice
        gas_object: "0xabc"
        gas_budget: 1000
        inputs:
          - kind: owned
            id: "0x01"
        writes:
          - id: "0x01"
            contents:
              n: 1
  - end_of_epoch: true
`))
	require.NoError(t, err)

	assert.Equal(t, "test", scenario.Name)
	require.Len(t, scenario.Checkpoints, 2)
	assert.True(t, scenario.Checkpoints[1].EndOfEpoch)
	require.Len(t, scenario.Checkpoints[0].Transactions, 1)
	assert.Equal(t, "mutate", scenario.Checkpoints[0].Transactions[0].Op)
}

func TestParseScenario_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"missing name",
			"checkpoints: []\n",
			"name is required",
		},
		{
			"unknown field",
			scenarioHeader + "bogus: 1\n",
			"field bogus not found",
		},
		{
			"unknown op",
			scenarioHeader + `
checkpoints:
  - transactions:
      - op: teleport
        gas_object: "0xabc"
        gas_budget: 1000
`,
			"unknown op",
		},
		{
			"missing gas object",
			scenarioHeader + `
checkpoints:
  - transactions:
      - op: mutate
        gas_budget: 1000
`,
			"gas_object is required",
		},
		{
			"missing gas budget",
			scenarioHeader + `
checkpoints:
  - transactions:
      - op: mutate
        gas_object: "0xabc"
`,
			"gas_budget is required",
		},
		{
			"unknown input kind",
			scenarioHeader + `
checkpoints:
  - transactions:
      - op: mutate
        gas_object: "0xabc"
        gas_budget: 1000
        inputs:
          - kind: borrowed
            id: "0x01"
`,
			"unknown kind",
		},
		{
			"write without id",
			scenarioHeader + `
checkpoints:
  - transactions:
      - op: mutate
        gas_object: "0xabc"
        gas_budget: 1000
        writes:
          - contents:
              n: 1
`,
			"id is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
