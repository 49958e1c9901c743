package clipboard

import (
	"fmt"
	"sync"
)

// The clipboard is a process-wide resource and opening it is not
// reentrant, so every Engine in the process shares one lock.
var sessionMu sync.Mutex

// Engine captures and restores snapshots through a System.
type Engine struct {
	sys  System
	warn WarningHandler
}

type Option func(*Engine)

// WithWarningHandler sets the receiver of per-format warnings. Without it
// warnings are dropped.
func WithWarningHandler(fn WarningHandler) Option {
	return func(e *Engine) {
		e.warn = fn
	}
}

func NewEngine(sys System, opts ...Option) *Engine {
	e := &Engine{sys: sys}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Capture returns every format currently on the clipboard that could be
// read. Only failing to open the clipboard is an error; formats that
// cannot be read are reported as warnings and left out. A registered format
// whose name cannot be looked up is kept under its number.
func (e *Engine) Capture() (Snapshot, error) {
	var formats []Format

	err := e.session(func() error {
		var id uint32
		for {
			next, err := e.sys.NextFormat(id)
			if err != nil {
				e.warnf(OpEnumerate, id, "", err)
				break
			}
			if next == 0 {
				break
			}
			id = next

			if f, ok := e.captureFormat(id); ok {
				formats = append(formats, f)
			}
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{formats: formats}, nil
}

func (e *Engine) captureFormat(id uint32) (Format, bool) {
	if IsHandleFormat(id) {
		e.warnf(OpSkip, id, "", fmt.Errorf("payload is a GDI handle, not global memory"))
		return Format{}, false
	}

	h, err := e.sys.Data(id)
	if err != nil {
		e.warnf(OpGetData, id, "", err)
		return Format{}, false
	}
	if h == 0 {
		e.warnf(OpGetData, id, "", fmt.Errorf("no data handle"))
		return Format{}, false
	}

	data, err := ReadHandle(e.sys, h)
	if err != nil {
		e.warnf(OpRead, id, "", err)
		return Format{}, false
	}

	if IsStandard(id) {
		return Format{ID: FormatID{id: id}, Data: data}, true
	}

	name, err := e.sys.FormatName(id)
	if err == nil && name == "" {
		err = fmt.Errorf("empty format name")
	}
	if err != nil {
		e.warnf(OpName, id, "", err)
		return Format{ID: FormatID{id: id}, Data: data}, true
	}
	return Format{ID: FormatID{id: id, name: name}, Data: data}, true
}

// Restore replaces the clipboard contents with s. The current contents are
// cleared first; if that fails nothing is set and ErrClearFailed is
// returned. Formats that cannot be set are reported as warnings.
func (e *Engine) Restore(s Snapshot) error {
	return e.session(func() error {
		if err := e.sys.Empty(); err != nil {
			return fmt.Errorf("%w: %v", ErrClearFailed, err)
		}
		for _, f := range s.formats {
			e.restoreFormat(f)
		}
		return nil
	})
}

func (e *Engine) restoreFormat(f Format) {
	id := f.ID.Number()
	name, custom := f.ID.Name()
	if custom {
		registered, err := e.sys.Register(name)
		if err != nil {
			e.warnf(OpRegister, id, name, err)
			return
		}
		id = registered
	}

	h, err := WriteHandle(e.sys, f.Data)
	if err != nil {
		e.warnf(OpWrite, id, name, err)
		return
	}

	if err := e.sys.SetData(id, h); err != nil {
		e.sys.Free(h)
		e.warnf(OpSetData, id, name, err)
	}
}

// session holds the clipboard open for the duration of fn.
func (e *Engine) session(fn func() error) error {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if err := e.sys.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer e.sys.Close() //nolint:errcheck

	return fn()
}

func (e *Engine) warnf(op string, id uint32, name string, err error) {
	if e.warn == nil {
		return
	}
	e.warn(Warning{Op: op, Format: id, Name: name, Err: err})
}
