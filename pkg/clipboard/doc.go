// Package clipboard snapshots and restores the complete multi-format
// contents of the Windows clipboard.
//
// Capture enumerates every format present on the clipboard, copies each
// payload out of OS-owned global memory into an owned buffer and resolves
// the registered name of custom formats. Restore clears the clipboard and
// sets every format of a Snapshot again, re-registering custom formats by
// name so their session-specific numeric ids line up.
//
// The OS is reached through the System and Memory interfaces. On Windows
// New returns a user32/kernel32 backed implementation; on every other
// platform it returns ErrUnsupportedPlatform.
package clipboard
