package clipboard

import (
	"bytes"
	"fmt"
)

// CustomFormatThreshold is the first id handed out by
// RegisterClipboardFormat. Ids below it are predefined by the OS.
const CustomFormatThreshold uint32 = 0xC000

// Predefined clipboard formats.
const (
	CF_TEXT            uint32 = 1
	CF_BITMAP          uint32 = 2
	CF_METAFILEPICT    uint32 = 3
	CF_SYLK            uint32 = 4
	CF_DIF             uint32 = 5
	CF_TIFF            uint32 = 6
	CF_OEMTEXT         uint32 = 7
	CF_DIB             uint32 = 8
	CF_PALETTE         uint32 = 9
	CF_PENDATA         uint32 = 10
	CF_RIFF            uint32 = 11
	CF_WAVE            uint32 = 12
	CF_UNICODETEXT     uint32 = 13
	CF_ENHMETAFILE     uint32 = 14
	CF_HDROP           uint32 = 15
	CF_LOCALE          uint32 = 16
	CF_DIBV5           uint32 = 17
	CF_OWNERDISPLAY    uint32 = 0x0080
	CF_DSPTEXT         uint32 = 0x0081
	CF_DSPBITMAP       uint32 = 0x0082
	CF_DSPMETAFILEPICT uint32 = 0x0083
	CF_DSPENHMETAFILE  uint32 = 0x008E
	CF_PRIVATEFIRST    uint32 = 0x0200
	CF_PRIVATELAST     uint32 = 0x02FF
	CF_GDIOBJFIRST     uint32 = 0x0300
	CF_GDIOBJLAST      uint32 = 0x03FF
)

var standardNames = map[uint32]string{
	CF_TEXT:            "CF_TEXT",
	CF_BITMAP:          "CF_BITMAP",
	CF_METAFILEPICT:    "CF_METAFILEPICT",
	CF_SYLK:            "CF_SYLK",
	CF_DIF:             "CF_DIF",
	CF_TIFF:            "CF_TIFF",
	CF_OEMTEXT:         "CF_OEMTEXT",
	CF_DIB:             "CF_DIB",
	CF_PALETTE:         "CF_PALETTE",
	CF_PENDATA:         "CF_PENDATA",
	CF_RIFF:            "CF_RIFF",
	CF_WAVE:            "CF_WAVE",
	CF_UNICODETEXT:     "CF_UNICODETEXT",
	CF_ENHMETAFILE:     "CF_ENHMETAFILE",
	CF_HDROP:           "CF_HDROP",
	CF_LOCALE:          "CF_LOCALE",
	CF_DIBV5:           "CF_DIBV5",
	CF_OWNERDISPLAY:    "CF_OWNERDISPLAY",
	CF_DSPTEXT:         "CF_DSPTEXT",
	CF_DSPBITMAP:       "CF_DSPBITMAP",
	CF_DSPMETAFILEPICT: "CF_DSPMETAFILEPICT",
	CF_DSPENHMETAFILE:  "CF_DSPENHMETAFILE",
}

// IsStandard reports whether id lies in the predefined range.
func IsStandard(id uint32) bool {
	return id < CustomFormatThreshold
}

// IsHandleFormat reports whether the data of a format is a GDI object or
// owner-drawn handle rather than a global memory block. Such payloads
// cannot be copied byte for byte.
func IsHandleFormat(id uint32) bool {
	switch id {
	case CF_BITMAP, CF_METAFILEPICT, CF_PALETTE, CF_ENHMETAFILE,
		CF_OWNERDISPLAY, CF_DSPBITMAP, CF_DSPMETAFILEPICT, CF_DSPENHMETAFILE:
		return true
	}
	return id >= CF_GDIOBJFIRST && id <= CF_GDIOBJLAST
}

// StandardName returns the CF_* constant name of a predefined format.
func StandardName(id uint32) (string, bool) {
	name, ok := standardNames[id]
	return name, ok
}

// FormatID identifies a clipboard format. It is either standard (a
// predefined numeric id) or custom (a registered name, plus the numeric id
// it had in the session it was observed in). A custom id whose name could
// not be resolved is kept by number alone. The zero value is invalid.
type FormatID struct {
	id   uint32
	name string
}

// StandardFormat returns the FormatID of a predefined format.
func StandardFormat(id uint32) (FormatID, error) {
	if id == 0 {
		return FormatID{}, fmt.Errorf("format id 0 is not a clipboard format")
	}
	if !IsStandard(id) {
		return FormatID{}, fmt.Errorf("format id %#x is in the custom range and needs a name", id)
	}
	return FormatID{id: id}, nil
}

// CustomFormat returns the FormatID of a registered format. id is the
// session-local number the format was observed with.
func CustomFormat(id uint32, name string) (FormatID, error) {
	if IsStandard(id) {
		return FormatID{}, fmt.Errorf("format id %#x is predefined and cannot carry name %q", id, name)
	}
	if name == "" {
		return FormatID{}, fmt.Errorf("custom format %#x has no name", id)
	}
	return FormatID{id: id, name: name}, nil
}

// UnnamedFormat returns the FormatID of a registered format whose name is
// unknown. Restoring it reuses id as is.
func UnnamedFormat(id uint32) (FormatID, error) {
	if IsStandard(id) {
		return FormatID{}, fmt.Errorf("format id %#x is predefined, not registered", id)
	}
	return FormatID{id: id}, nil
}

// ParseFormatID rebuilds a FormatID from a stored id and optional name.
func ParseFormatID(id uint32, name *string) (FormatID, error) {
	switch {
	case name != nil:
		return CustomFormat(id, *name)
	case IsStandard(id):
		return StandardFormat(id)
	default:
		return UnnamedFormat(id)
	}
}

// MustStandardFormat is like StandardFormat but panics on an invalid id.
func MustStandardFormat(id uint32) FormatID {
	f, err := StandardFormat(id)
	if err != nil {
		panic(err)
	}
	return f
}

// Number returns the numeric id. For custom formats this is only
// meaningful in the session the format was captured in.
func (f FormatID) Number() uint32 {
	return f.id
}

// Name returns the registered name of a custom format.
func (f FormatID) Name() (string, bool) {
	return f.name, f.name != ""
}

// IsCustom reports whether the format was registered by an application,
// named or not.
func (f FormatID) IsCustom() bool {
	return !IsStandard(f.id)
}

// SameFormat reports whether two ids denote the same format. Named custom
// formats compare by name since their numbers differ across sessions.
func (f FormatID) SameFormat(other FormatID) bool {
	if f.name != "" || other.name != "" {
		return f.name == other.name
	}
	return f.id == other.id
}

func (f FormatID) String() string {
	if f.name != "" {
		return f.name
	}
	if name, ok := StandardName(f.id); ok {
		return name
	}
	if f.id >= CF_PRIVATEFIRST && f.id <= CF_PRIVATELAST {
		return fmt.Sprintf("CF_PRIVATE+%d", f.id-CF_PRIVATEFIRST)
	}
	return fmt.Sprintf("#%d", f.id)
}

// Format is one clipboard format and its payload.
type Format struct {
	ID   FormatID
	Data []byte
}

// NewFormat copies data into a new Format.
func NewFormat(id FormatID, data []byte) Format {
	return Format{ID: id, Data: bytes.Clone(nonNil(data))}
}

func (f Format) Number() uint32 {
	return f.ID.Number()
}

func (f Format) Name() (string, bool) {
	return f.ID.Name()
}

func (f Format) IsCustom() bool {
	return f.ID.IsCustom()
}

// DisplayName is the CF_* name for standard formats and the registered
// name for custom ones.
func (f Format) DisplayName() string {
	return f.ID.String()
}

func (f Format) Size() int {
	return len(f.Data)
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
