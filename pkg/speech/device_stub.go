//go:build !windows

package speech

// NewPlatformDevice reports that no on-device synthesizer is available on
// this platform. Callers fall back to the bridge-only path.
func NewPlatformDevice() (OnDevice, error) {
	return nil, ErrUnsupportedPlatform
}
