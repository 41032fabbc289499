package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/ledgerlab/replayer/internal/types"
)

// snapshot renders a scenario result as canonical JSON for golden
// comparison. Digests are excluded: identifiers and versions pin the final
// store shape, while digest stability is covered by the replay itself
// (verification would have failed on any drift).
func snapshot(scenarioName string, result *Result) ([]byte, error) {
	objects := make([]any, len(result.Objects))
	for i, rec := range result.Objects {
		objects[i] = map[string]any{
			"id":      string(rec.Reference.ID),
			"version": uint64(rec.Reference.Version),
		}
	}

	return types.MarshalCanonical(map[string]any{
		"scenario_name":  scenarioName,
		"run_token":      result.Report.RunToken,
		"genesis_seq":    result.Report.GenesisSeq,
		"highest_synced": result.Report.HighestSynced,
		"checkpoints":    result.Report.Checkpoints,
		"transactions":   result.Report.Transactions,
		"final_epoch":    result.Report.FinalEpoch,
		"elapsed_ms":     result.Report.Elapsed.Milliseconds(),
		"tps":            fmt.Sprintf("%.2f", result.Report.TPS()),
		"objects":        objects,
	})
}

// RunWithGolden runs a scenario and compares its rendered report against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}

	rendered, err := snapshot(scenario.Name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, rendered)
	return nil
}
