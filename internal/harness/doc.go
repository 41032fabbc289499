// Package harness provides end-to-end scenario testing for the replay
// driver.
//
// A scenario is a YAML file describing a genesis state and a checkpointed
// transaction history. The harness builds a real archive from the scenario
// by executing every transaction through the reference engine (recording
// the effects digests a live node would have recorded), then replays the
// archive through the driver and verifies the run completes.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario exercises"
//	genesis:
//	  sequence: 0
//	  system_state:
//	    next_committee: { epoch: 0, validators: [{name: v1, stake: 100}] }
//	    next_protocol: { version: 1, max_input_objects: 16, max_gas_budget: 1000000 }
//	    next_vm_config: { bytecode_version: 1 }
//	    next_gas_price: 100
//	  objects:
//	    - id: "0x01"
//	      contents: { balance: 1000 }
//	checkpoints:
//	  - transactions:
//	      - op: mutate
//	        signer: alice
//	        gas_object: "0xabc"
//	        gas_budget: 10000
//	        inputs: [{kind: owned, id: "0x01"}]
//	        writes: [{id: "0x01", contents: {balance: 900}}]
//	  - end_of_epoch: true
//	    transactions:
//	      - op: change_epoch
//	        ...
//
// # Deterministic Runs
//
// Scenario runs use a fixed run token (the scenario name) and a stepping
// clock, so the rendered report is identical across runs and can be
// compared against golden files with goldie.
package harness
