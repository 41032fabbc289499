package vm

import (
	"fmt"

	"github.com/ledgerlab/replayer/internal/replay"
	"github.com/ledgerlab/replayer/internal/types"
)

// Accountant validates a transaction's gas declaration against the active
// epoch parameters. It implements replay.GasAccountant.
type Accountant struct{}

// NewAccountant creates the reference gas accountant.
func NewAccountant() Accountant { return Accountant{} }

// ComputeGasStatus checks the declared budget against the protocol limits
// and the epoch's reference gas price. On replay every transaction already
// committed once, so any rejection here signals a replay setup problem,
// not a bad transaction; the caller treats it as fatal.
func (Accountant) ComputeGasStatus(inputs types.InputObjects, gasRef types.ObjectReference, gasBudget uint64, protocol types.ProtocolParams, referenceGasPrice uint64) (replay.GasStatus, error) {
	if gasRef.ID == "" {
		return replay.GasStatus{}, fmt.Errorf("gas: transaction declares no gas object")
	}
	if gasBudget > protocol.MaxGasBudget {
		return replay.GasStatus{}, fmt.Errorf("gas: budget %d exceeds protocol maximum %d", gasBudget, protocol.MaxGasBudget)
	}
	if gasBudget < referenceGasPrice {
		return replay.GasStatus{}, fmt.Errorf("gas: budget %d below reference price %d", gasBudget, referenceGasPrice)
	}
	if max := protocol.MaxInputObjects; max > 0 && int64(len(inputs.Pairs)) > max {
		return replay.GasStatus{}, fmt.Errorf("gas: %d inputs exceed protocol maximum %d", len(inputs.Pairs), max)
	}
	return replay.GasStatus{Budget: gasBudget, Price: referenceGasPrice}, nil
}
