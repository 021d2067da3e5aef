package api

import "testing"

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "standard line",
			raw:  `time=2026-08-31T10:30:00Z level=INFO msg="Recording played" voice=sarah`,
			want: "10:30:00 Recording played (voice=sarah)",
		},
		{
			name: "drops long values",
			raw:  `time=2026-08-31T10:30:00Z level=INFO msg=Resolved url=http://storage.example.com/very/long/audio/url.mp3`,
			want: "10:30:00 Resolved",
		},
		{
			name: "sorts params",
			raw:  `time=2026-08-31T10:30:00Z level=INFO msg=Done z=1 a=2`,
			want: "10:30:00 Done (a=2, z=1)",
		},
		{
			name: "unparseable passes through",
			raw:  "plain text",
			want: "plain text",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatLogLine(tc.raw); got != tc.want {
				t.Errorf("formatLogLine(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
