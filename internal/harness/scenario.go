package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ledgerlab/replayer/internal/genesis"
	"github.com/ledgerlab/replayer/internal/types"
)

// Scenario describes one replayable history: genesis plus checkpoints.
type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Genesis     genesis.Manifest `yaml:"genesis"`
	Checkpoints []CheckpointSpec `yaml:"checkpoints"`
}

// CheckpointSpec is one checkpoint of the scenario history.
type CheckpointSpec struct {
	EndOfEpoch   bool              `yaml:"end_of_epoch,omitempty"`
	Transactions []TransactionSpec `yaml:"transactions,omitempty"`
}

// TransactionSpec is one transaction of a checkpoint.
type TransactionSpec struct {
	Op        string           `yaml:"op"`
	Signer    string           `yaml:"signer"`
	GasObject types.ObjectID   `yaml:"gas_object"`
	GasBudget uint64           `yaml:"gas_budget"`
	Inputs    []InputSpec      `yaml:"inputs,omitempty"`
	Writes    []WriteSpec      `yaml:"writes,omitempty"`
	Deletes   []types.ObjectID `yaml:"deletes,omitempty"`
}

// InputSpec declares one input object of a transaction.
type InputSpec struct {
	Kind string         `yaml:"kind"`
	ID   types.ObjectID `yaml:"id"`
}

// WriteSpec declares the full new contents for one written object.
type WriteSpec struct {
	ID       types.ObjectID `yaml:"id"`
	Contents map[string]any `yaml:"contents"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario validates scenario bytes. Unknown YAML fields are rejected,
// catching typos like "transaction:" vs "transactions:".
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	for ci, cp := range s.Checkpoints {
		for ti, tx := range cp.Transactions {
			where := fmt.Sprintf("scenario %s: checkpoint %d tx %d", s.Name, ci, ti)
			switch types.OpCode(tx.Op) {
			case types.OpMutate, types.OpChangeEpoch:
			default:
				return fmt.Errorf("%s: unknown op %q", where, tx.Op)
			}
			if tx.GasObject == "" {
				return fmt.Errorf("%s: gas_object is required", where)
			}
			if tx.GasBudget == 0 {
				return fmt.Errorf("%s: gas_budget is required", where)
			}
			for ii, in := range tx.Inputs {
				switch types.InputKind(in.Kind) {
				case types.InputOwned, types.InputShared, types.InputPackage:
				default:
					return fmt.Errorf("%s input %d: unknown kind %q", where, ii, in.Kind)
				}
				if in.ID == "" {
					return fmt.Errorf("%s input %d: id is required", where, ii)
				}
			}
			for wi, w := range tx.Writes {
				if w.ID == "" {
					return fmt.Errorf("%s write %d: id is required", where, wi)
				}
			}
		}
	}
	return nil
}
