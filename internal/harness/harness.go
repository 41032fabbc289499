package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerlab/replayer/internal/archive"
	"github.com/ledgerlab/replayer/internal/replay"
	"github.com/ledgerlab/replayer/internal/types"
	"github.com/ledgerlab/replayer/internal/vm"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Report is the driver's run report.
	Report replay.RunReport

	// Objects is the final working store, ordered by identifier.
	Objects []types.ObjectRecord
}

// stepClock advances one second per observation so elapsed time and
// throughput are identical across runs.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

// Run builds an in-memory archive from the scenario and replays it through
// the driver. The run token is the scenario name and the clock is stepped,
// so the result is deterministic.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	arch, err := archive.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	defer arch.Close()

	build, err := Build(ctx, scenario, arch)
	if err != nil {
		return nil, err
	}

	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	driver, err := replay.NewDriver(replay.DriverConfig{
		Checkpoints:  arch,
		Transactions: arch,
		Genesis:      build.Genesis,
		Gas:          vm.NewAccountant(),
		Engine:       vm.NewEngine(),
		Tokens:       replay.NewFixedGenerator(scenario.Name),
		Now:          clock.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	report, err := driver.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	return &Result{
		Report:  report,
		Objects: driver.Store().Objects(),
	}, nil
}
