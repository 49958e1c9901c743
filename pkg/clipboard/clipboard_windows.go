//go:build windows

package clipboard

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	gmemMoveable = 0x0002

	// Longest name GetClipboardFormatNameW is asked for, in UTF-16 units.
	maxFormatName = 256
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard           = user32.NewProc("OpenClipboard")
	procCloseClipboard          = user32.NewProc("CloseClipboard")
	procEmptyClipboard          = user32.NewProc("EmptyClipboard")
	procEnumClipboardFormats    = user32.NewProc("EnumClipboardFormats")
	procGetClipboardData        = user32.NewProc("GetClipboardData")
	procSetClipboardData        = user32.NewProc("SetClipboardData")
	procGetClipboardFormatNameW = user32.NewProc("GetClipboardFormatNameW")
	procRegisterClipboardFormat = user32.NewProc("RegisterClipboardFormatW")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalSize   = kernel32.NewProc("GlobalSize")
)

type winSystem struct{}

// New returns the user32 clipboard.
func New() (System, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
	}
	if err := kernel32.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
	}
	return winSystem{}, nil
}

// Open takes clipboard ownership for the calling OS thread, so the
// goroutine stays pinned to it until Close.
func (winSystem) Open() error {
	runtime.LockOSThread()
	r, _, err := procOpenClipboard.Call(0)
	if r == 0 {
		runtime.UnlockOSThread()
		return callError("OpenClipboard", err)
	}
	return nil
}

func (winSystem) Close() error {
	defer runtime.UnlockOSThread()
	r, _, err := procCloseClipboard.Call()
	if r == 0 {
		return callError("CloseClipboard", err)
	}
	return nil
}

func (winSystem) Empty() error {
	r, _, err := procEmptyClipboard.Call()
	if r == 0 {
		return callError("EmptyClipboard", err)
	}
	return nil
}

func (winSystem) NextFormat(prev uint32) (uint32, error) {
	r, _, err := procEnumClipboardFormats.Call(uintptr(prev))
	if r == 0 {
		// ERROR_SUCCESS here means the end of the list.
		if errno, ok := err.(windows.Errno); ok && errno != windows.ERROR_SUCCESS {
			return 0, callError("EnumClipboardFormats", err)
		}
		return 0, nil
	}
	return uint32(r), nil
}

func (winSystem) Data(id uint32) (Handle, error) {
	r, _, err := procGetClipboardData.Call(uintptr(id))
	if r == 0 {
		return 0, callError("GetClipboardData", err)
	}
	return Handle(r), nil
}

func (winSystem) FormatName(id uint32) (string, error) {
	buf := make([]uint16, maxFormatName)
	r, _, err := procGetClipboardFormatNameW.Call(
		uintptr(id),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if r == 0 {
		return "", callError("GetClipboardFormatNameW", err)
	}
	return windows.UTF16ToString(buf[:r]), nil
}

func (winSystem) Register(name string) (uint32, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, fmt.Errorf("encode format name %q: %w", name, err)
	}
	r, _, err := procRegisterClipboardFormat.Call(uintptr(unsafe.Pointer(p)))
	if r == 0 {
		return 0, callError("RegisterClipboardFormatW", err)
	}
	return uint32(r), nil
}

func (winSystem) SetData(id uint32, h Handle) error {
	r, _, err := procSetClipboardData.Call(uintptr(id), uintptr(h))
	if r == 0 {
		return callError("SetClipboardData", err)
	}
	return nil
}

func (winSystem) Size(h Handle) int {
	r, _, _ := procGlobalSize.Call(uintptr(h))
	return int(r)
}

func (winSystem) Lock(h Handle) (unsafe.Pointer, error) {
	r, _, err := procGlobalLock.Call(uintptr(h))
	if r == 0 {
		return nil, callError("GlobalLock", err)
	}
	// r points outside the Go heap.
	return *(*unsafe.Pointer)(unsafe.Pointer(&r)), nil
}

func (winSystem) Unlock(h Handle) {
	procGlobalUnlock.Call(uintptr(h)) //nolint:errcheck
}

func (winSystem) Alloc(n int) (Handle, error) {
	r, _, err := procGlobalAlloc.Call(gmemMoveable, uintptr(n))
	if r == 0 {
		return 0, callError("GlobalAlloc", err)
	}
	return Handle(r), nil
}

func (winSystem) Free(h Handle) {
	procGlobalFree.Call(uintptr(h)) //nolint:errcheck
}

func callError(fn string, err error) error {
	var errno windows.Errno
	if errors.As(err, &errno) && errno != windows.ERROR_SUCCESS {
		return fmt.Errorf("%s: %w", fn, errno)
	}
	return fmt.Errorf("%s failed", fn)
}
