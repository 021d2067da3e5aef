package probe

import (
	"context"
	"errors"
	"testing"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{
			Name:     "reachable",
			Check:    func(ctx context.Context) error { return nil },
			Critical: true,
		},
		{
			Name:     "flaky non-critical",
			Check:    func(ctx context.Context) error { return errors.New("minor issue") },
			Critical: false,
		},
	}

	results := Run(context.Background(), probes)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("reachable probe failed: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("flaky probe should have failed")
	}
}

func TestAnalyzeResults(t *testing.T) {
	fail := errors.New("fail")
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{"all pass", []Result{{Probe: Probe{Name: "P1", Critical: true}}}, false},
		{"critical failure", []Result{{Probe: Probe{Name: "P1", Critical: true}, Error: fail}}, true},
		{"non-critical failure", []Result{{Probe: Probe{Name: "P1"}, Error: fail}}, false},
		{"mixed", []Result{
			{Probe: Probe{Name: "P1"}, Error: fail},
			{Probe: Probe{Name: "P2", Critical: true}, Error: fail},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeResults(tt.results)
			if (err != nil) != tt.wantErr {
				t.Errorf("AnalyzeResults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
