// Package version holds the build version string.
package version

import "fmt"

// Version is the application version. Overridden at build time via
// -ldflags "-X voxlingo/pkg/version.Version=...".
var Version = "0.3.0-dev"

// UserAgent returns the User-Agent header value for outbound requests.
func UserAgent() string {
	return fmt.Sprintf("Voxlingo/%s", Version)
}
