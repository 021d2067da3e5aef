package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"10s", 10 * time.Second, false},
		{"1.5h", 90 * time.Minute, false},
		{"2h45m", 2*time.Hour + 45*time.Minute, false},
		{"1d", Day, false},
		{"2d", 2 * Day, false},
		{"1w", Week, false},
		{"1d2h", Day + 2*time.Hour, false},
		{"", 0, false},
		{"bogus", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	type doc struct {
		D Duration `yaml:"d"`
	}

	var parsed doc
	if err := yaml.Unmarshal([]byte("d: 30d"), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if time.Duration(parsed.D) != 30*Day {
		t.Errorf("parsed = %v, want 720h", time.Duration(parsed.D))
	}

	out, err := yaml.Marshal(doc{D: Duration(90 * time.Second)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "d: 1m30s\n" {
		t.Errorf("marshalled = %q", out)
	}
}
