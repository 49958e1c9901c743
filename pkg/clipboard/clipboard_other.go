//go:build !windows

package clipboard

// New reports ErrUnsupportedPlatform: only the Win32 clipboard can be
// snapshotted.
func New() (System, error) {
	return nil, ErrUnsupportedPlatform
}
