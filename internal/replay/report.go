package replay

import (
	"fmt"
	"time"
)

// RunReport summarizes one completed replay run.
type RunReport struct {
	// RunToken identifies the run in logs and reports.
	RunToken string `json:"run_token"`

	// GenesisSeq is the sequence number replay started from.
	GenesisSeq uint64 `json:"genesis_seq"`

	// HighestSynced is the watermark replay advanced up to (exclusive).
	HighestSynced uint64 `json:"highest_synced"`

	// Checkpoints is the number of checkpoints replayed.
	Checkpoints uint64 `json:"checkpoints"`

	// Transactions is the number of transactions executed and verified.
	Transactions uint64 `json:"transactions"`

	// FinalEpoch is the epoch active when the run completed.
	FinalEpoch uint64 `json:"final_epoch"`

	// Elapsed is the wall time the replay loop took.
	Elapsed time.Duration `json:"elapsed"`
}

// TPS returns the run's throughput in transactions per second.
// Returns 0 for a zero-duration run rather than dividing by zero.
func (r RunReport) TPS() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Transactions) / secs
}

// String renders the final throughput line.
func (r RunReport) String() string {
	return fmt.Sprintf("replayed %d transactions in %d checkpoints over %s (%.2f tx/s, final epoch %d)",
		r.Transactions, r.Checkpoints, r.Elapsed.Round(time.Millisecond), r.TPS(), r.FinalEpoch)
}
