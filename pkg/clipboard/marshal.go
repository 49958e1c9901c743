package clipboard

import (
	"fmt"
	"unsafe"
)

// ReadHandle copies the contents of a clipboard-owned block into a new
// slice. The block is unlocked before returning and never freed.
func ReadHandle(mem Memory, h Handle) ([]byte, error) {
	size := mem.Size(h)
	if size == 0 {
		return []byte{}, nil
	}

	ptr, err := mem.Lock(h)
	if err != nil {
		return nil, fmt.Errorf("lock global memory: %w", err)
	}
	defer mem.Unlock(h)

	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(ptr), size))
	return data, nil
}

// WriteHandle allocates a movable block holding a copy of data. The caller
// hands the returned block to the clipboard, or frees it if that fails.
func WriteHandle(mem Memory, data []byte) (Handle, error) {
	h, err := mem.Alloc(len(data))
	if err != nil {
		return 0, fmt.Errorf("allocate %d bytes of global memory: %w", len(data), err)
	}
	if len(data) == 0 {
		// A zero-byte movable block is allocated discarded and cannot be locked.
		return h, nil
	}

	ptr, err := mem.Lock(h)
	if err != nil {
		mem.Free(h)
		return 0, fmt.Errorf("lock global memory: %w", err)
	}
	copy(unsafe.Slice((*byte)(ptr), len(data)), data)
	mem.Unlock(h)

	return h, nil
}
