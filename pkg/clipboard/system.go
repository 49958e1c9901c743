package clipboard

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrUnsupportedPlatform is returned on platforms without the Win32
	// clipboard.
	ErrUnsupportedPlatform = errors.New("clipboard snapshots are only supported on Windows")
	// ErrUnavailable means the clipboard could not be opened, usually
	// because another window holds it.
	ErrUnavailable = errors.New("clipboard is unavailable")
	// ErrClearFailed means the clipboard could not be emptied before a
	// restore.
	ErrClearFailed = errors.New("failed to clear clipboard")
)

// Handle is an OS global memory handle (HGLOBAL).
type Handle uintptr

// Memory is the shared-memory API used to move payloads in and out of the
// clipboard. Only ReadHandle and WriteHandle call it.
type Memory interface {
	// Size returns the size of the block in bytes, 0 when empty or invalid.
	Size(h Handle) int
	// Lock pins the block and returns its address.
	Lock(h Handle) (unsafe.Pointer, error)
	Unlock(h Handle)
	// Alloc allocates a movable block of n bytes.
	Alloc(n int) (Handle, error)
	// Free releases a block that was never handed to the clipboard.
	Free(h Handle)
}

// System is the clipboard API. Implementations are not reentrant: callers
// go through Engine, which serializes access.
type System interface {
	Memory

	Open() error
	Close() error
	Empty() error
	// NextFormat returns the format following prev, starting with prev 0.
	// It returns 0 when there are no more formats.
	NextFormat(prev uint32) (uint32, error)
	// Data returns the handle holding the payload of format id. The handle
	// stays owned by the clipboard.
	Data(id uint32) (Handle, error)
	// FormatName returns the registered name of a custom format.
	FormatName(id uint32) (string, error)
	// Register returns the id of a named format, registering it if needed.
	Register(name string) (uint32, error)
	// SetData hands h to the clipboard as the payload of format id. On
	// success the clipboard owns h.
	SetData(id uint32, h Handle) error
}

// Warning describes a recoverable per-format failure. Warnings never abort
// a Capture or Restore.
type Warning struct {
	Op     string
	Format uint32
	Name   string
	Err    error
}

func (w Warning) Error() string {
	label := fmt.Sprintf("%d", w.Format)
	if w.Name != "" {
		label = fmt.Sprintf("%d (%s)", w.Format, w.Name)
	}
	return fmt.Sprintf("%s format %s: %v", w.Op, label, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// WarningHandler receives warnings as they happen.
type WarningHandler func(Warning)

// Warning operations.
const (
	OpEnumerate = "enumerate"
	OpGetData   = "get data"
	OpRead      = "read"
	OpName      = "resolve name"
	OpSkip      = "skip"
	OpRegister  = "register"
	OpWrite     = "write"
	OpSetData   = "set data"
)
