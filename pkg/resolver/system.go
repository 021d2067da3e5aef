package resolver

import (
	"context"

	"voxlingo/pkg/probe"
)

// TestSystem checks the synthesis provider and the repository backend and
// returns the conjunction of both checks.
func (e *Engine) TestSystem(ctx context.Context) bool {
	results := probe.Run(ctx, []probe.Probe{
		{Name: "synthesis-provider", Check: e.synth.TestConnection, Critical: true},
		{Name: "audio-repository", Check: e.store.Ping, Critical: true},
	})
	return probe.AnalyzeResults(results) == nil
}
