package clipboard

// Capture snapshots the system clipboard.
func Capture(opts ...Option) (Snapshot, error) {
	sys, err := New()
	if err != nil {
		return Snapshot{}, err
	}
	return NewEngine(sys, opts...).Capture()
}

// Restore replaces the system clipboard contents with s.
func Restore(s Snapshot, opts ...Option) error {
	sys, err := New()
	if err != nil {
		return err
	}
	return NewEngine(sys, opts...).Restore(s)
}
