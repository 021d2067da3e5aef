package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version must not be empty")
	}
	if !strings.Contains(UserAgent(), Version) {
		t.Errorf("UserAgent() = %q, should contain version %q", UserAgent(), Version)
	}
}
