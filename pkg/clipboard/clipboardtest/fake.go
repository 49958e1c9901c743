// Package clipboardtest provides an in-memory clipboard.System for tests.
package clipboardtest

import (
	"errors"
	"unsafe"

	"clipkeeper/pkg/clipboard"
)

type block struct {
	data  []byte
	locks int
	owned bool
}

type entry struct {
	id     uint32
	handle clipboard.Handle
}

// Fake is an in-memory clipboard with the same ownership rules as user32:
// handles passed to SetData belong to the clipboard afterwards and are
// never freed by the caller.
//
// The exported fields inject failures. Maps are keyed by format id, except
// RegErr (format name) and AllocErr (allocation size).
type Fake struct {
	OpenErr      error
	OpenFailures int
	EmptyErr     error
	EnumErrAt    uint32
	DataErr      map[uint32]error
	NullData     map[uint32]bool
	LockErr      map[uint32]bool
	LockNew      bool
	NameErr      map[uint32]bool
	RegErr       map[string]error
	AllocErr     map[int]bool
	SetErr       map[uint32]error

	Opens  int
	Closes int
	Freed  []clipboard.Handle

	blocks     map[clipboard.Handle]*block
	nextHandle clipboard.Handle
	entries    []entry
	registered map[string]uint32
	names      map[uint32]string
	nextCustom uint32
	open       bool
}

var _ clipboard.System = (*Fake)(nil)

// New returns an empty clipboard whose registered formats are numbered
// from customBase.
func New(customBase uint32) *Fake {
	return &Fake{
		DataErr:    make(map[uint32]error),
		NullData:   make(map[uint32]bool),
		LockErr:    make(map[uint32]bool),
		NameErr:    make(map[uint32]bool),
		RegErr:     make(map[string]error),
		AllocErr:   make(map[int]bool),
		SetErr:     make(map[uint32]error),
		blocks:     make(map[clipboard.Handle]*block),
		nextHandle: 0x1000,
		registered: make(map[string]uint32),
		names:      make(map[uint32]string),
		nextCustom: customBase,
	}
}

func (f *Fake) newBlock(data []byte) clipboard.Handle {
	f.nextHandle += 0x10
	f.blocks[f.nextHandle] = &block{data: append([]byte{}, data...)}
	return f.nextHandle
}

// Put places a payload on the clipboard as if another application copied
// it, replacing any payload already held for id.
func (f *Fake) Put(id uint32, data []byte) {
	h := f.newBlock(data)
	f.blocks[h].owned = true
	for i, e := range f.entries {
		if e.id == id {
			f.entries[i].handle = h
			return
		}
	}
	f.entries = append(f.entries, entry{id: id, handle: h})
}

// PutCustom registers name and puts data under the id it gets.
func (f *Fake) PutCustom(name string, data []byte) uint32 {
	id := f.register(name)
	f.Put(id, data)
	return id
}

func (f *Fake) entry(id uint32) (entry, bool) {
	for _, e := range f.entries {
		if e.id == id {
			return e, true
		}
	}
	return entry{}, false
}

// Payload returns the bytes currently held for id.
func (f *Fake) Payload(id uint32) ([]byte, bool) {
	e, ok := f.entry(id)
	if !ok {
		return nil, false
	}
	return f.blocks[e.handle].data, true
}

// Formats lists the ids on the clipboard in enumeration order.
func (f *Fake) Formats() []uint32 {
	ids := make([]uint32, 0, len(f.entries))
	for _, e := range f.entries {
		ids = append(ids, e.id)
	}
	return ids
}

// Registered returns the id name was registered under.
func (f *Fake) Registered(name string) (uint32, bool) {
	id, ok := f.registered[name]
	return id, ok
}

// Block returns the contents of a live memory block.
func (f *Fake) Block(h clipboard.Handle) ([]byte, bool) {
	b, ok := f.blocks[h]
	if !ok {
		return nil, false
	}
	return b.data, true
}

// Blocks is the number of live memory blocks.
func (f *Fake) Blocks() int {
	return len(f.blocks)
}

// LockedBlocks is the number of blocks with an outstanding lock.
func (f *Fake) LockedBlocks() int {
	n := 0
	for _, b := range f.blocks {
		if b.locks != 0 {
			n++
		}
	}
	return n
}

func (f *Fake) formatOf(h clipboard.Handle) uint32 {
	for _, e := range f.entries {
		if e.handle == h {
			return e.id
		}
	}
	return 0
}

func (f *Fake) register(name string) uint32 {
	if id, ok := f.registered[name]; ok {
		return id
	}
	id := f.nextCustom
	f.nextCustom++
	f.registered[name] = id
	f.names[id] = name
	return id
}

func (f *Fake) Open() error {
	if f.OpenErr != nil {
		return f.OpenErr
	}
	if f.OpenFailures > 0 {
		f.OpenFailures--
		return errors.New("access denied")
	}
	if f.open {
		return errors.New("already open")
	}
	f.open = true
	f.Opens++
	return nil
}

func (f *Fake) Close() error {
	if !f.open {
		return errors.New("not open")
	}
	f.open = false
	f.Closes++
	return nil
}

func (f *Fake) Empty() error {
	if f.EmptyErr != nil {
		return f.EmptyErr
	}
	f.entries = nil
	return nil
}

func (f *Fake) NextFormat(prev uint32) (uint32, error) {
	if !f.open {
		return 0, errors.New("clipboard not open")
	}
	if f.EnumErrAt != 0 && prev == f.EnumErrAt {
		return 0, errors.New("enumeration failed")
	}
	if prev == 0 {
		if len(f.entries) == 0 {
			return 0, nil
		}
		return f.entries[0].id, nil
	}
	for i, e := range f.entries {
		if e.id == prev && i+1 < len(f.entries) {
			return f.entries[i+1].id, nil
		}
	}
	return 0, nil
}

func (f *Fake) Data(id uint32) (clipboard.Handle, error) {
	if err := f.DataErr[id]; err != nil {
		return 0, err
	}
	if f.NullData[id] {
		return 0, nil
	}
	e, ok := f.entry(id)
	if !ok {
		return 0, errors.New("format not available")
	}
	return e.handle, nil
}

func (f *Fake) FormatName(id uint32) (string, error) {
	if f.NameErr[id] {
		return "", errors.New("no name")
	}
	name, ok := f.names[id]
	if !ok {
		return "", errors.New("unknown format")
	}
	return name, nil
}

func (f *Fake) Register(name string) (uint32, error) {
	if err := f.RegErr[name]; err != nil {
		return 0, err
	}
	return f.register(name), nil
}

func (f *Fake) SetData(id uint32, h clipboard.Handle) error {
	if !f.open {
		return errors.New("clipboard not open")
	}
	if err := f.SetErr[id]; err != nil {
		return err
	}
	b, ok := f.blocks[h]
	if !ok || b.owned {
		return errors.New("invalid handle")
	}
	b.owned = true
	for i, e := range f.entries {
		if e.id == id {
			f.entries[i].handle = h
			return nil
		}
	}
	f.entries = append(f.entries, entry{id: id, handle: h})
	return nil
}

func (f *Fake) Size(h clipboard.Handle) int {
	b, ok := f.blocks[h]
	if !ok {
		return 0
	}
	return len(b.data)
}

func (f *Fake) Lock(h clipboard.Handle) (unsafe.Pointer, error) {
	b, ok := f.blocks[h]
	if !ok || len(b.data) == 0 {
		return nil, errors.New("cannot lock block")
	}
	if f.LockErr[f.formatOf(h)] || (f.LockNew && !b.owned) {
		return nil, errors.New("lock failed")
	}
	b.locks++
	return unsafe.Pointer(&b.data[0]), nil
}

func (f *Fake) Unlock(h clipboard.Handle) {
	if b, ok := f.blocks[h]; ok && b.locks > 0 {
		b.locks--
	}
}

func (f *Fake) Alloc(n int) (clipboard.Handle, error) {
	if f.AllocErr[n] {
		return 0, errors.New("out of memory")
	}
	return f.newBlock(make([]byte, n)), nil
}

func (f *Fake) Free(h clipboard.Handle) {
	if b, ok := f.blocks[h]; ok && !b.owned {
		delete(f.blocks, h)
		f.Freed = append(f.Freed, h)
	}
}
