package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunReport_TPS(t *testing.T) {
	r := RunReport{Transactions: 300, Elapsed: 2 * time.Second}
	assert.InDelta(t, 150.0, r.TPS(), 0.001)

	// Zero elapsed never divides by zero
	assert.Equal(t, 0.0, RunReport{Transactions: 10}.TPS())
}

func TestRunReport_String(t *testing.T) {
	r := RunReport{
		Transactions: 4,
		Checkpoints:  2,
		Elapsed:      2 * time.Second,
		FinalEpoch:   1,
	}
	s := r.String()
	assert.Contains(t, s, "4 transactions")
	assert.Contains(t, s, "2 checkpoints")
	assert.Contains(t, s, "2.00 tx/s")
	assert.Contains(t, s, "final epoch 1")
}
