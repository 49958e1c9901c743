package clipboard

import "bytes"

// Snapshot is an immutable, ordered capture of clipboard formats.
type Snapshot struct {
	formats []Format
}

// NewSnapshot builds a Snapshot from formats. Payloads are copied so later
// changes to the arguments do not leak into the snapshot.
func NewSnapshot(formats ...Format) Snapshot {
	s := Snapshot{formats: make([]Format, 0, len(formats))}
	for _, f := range formats {
		s.formats = append(s.formats, NewFormat(f.ID, f.Data))
	}
	return s
}

// Formats returns a copy of the formats in capture order.
func (s Snapshot) Formats() []Format {
	out := make([]Format, len(s.formats))
	for i, f := range s.formats {
		out[i] = NewFormat(f.ID, f.Data)
	}
	return out
}

func (s Snapshot) Len() int {
	return len(s.formats)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.formats) == 0
}

// TotalSize is the sum of all payload sizes in bytes.
func (s Snapshot) TotalSize() int {
	total := 0
	for _, f := range s.formats {
		total += len(f.Data)
	}
	return total
}

// Lookup returns the first format matching id.
func (s Snapshot) Lookup(id FormatID) (Format, bool) {
	for _, f := range s.formats {
		if f.ID.SameFormat(id) {
			return NewFormat(f.ID, f.Data), true
		}
	}
	return Format{}, false
}

// Equal reports whether both snapshots hold the same set of formats with
// the same payloads. Order is ignored: the OS may enumerate synthesized
// formats differently after a restore. Named custom formats are compared by
// name only.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.formats) != len(other.formats) {
		return false
	}
	matched := make([]bool, len(other.formats))
	for _, f := range s.formats {
		found := false
		for i, o := range other.formats {
			if matched[i] || !f.ID.SameFormat(o.ID) || !bytes.Equal(f.Data, o.Data) {
				continue
			}
			matched[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}
