// Package preview renders short, single-line descriptions of clipboard
// payloads for tables and listings.
package preview

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"clipkeeper/pkg/clipboard"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	DefaultMaxLen = 60
	hexBytes      = 16
	ellipsis      = "…"
)

type Kind string

const (
	KindEmpty  Kind = "empty"
	KindText   Kind = "text"
	KindHTML   Kind = "html"
	KindRTF    Kind = "rtf"
	KindImage  Kind = "image"
	KindFiles  Kind = "files"
	KindLocale Kind = "locale"
	KindBinary Kind = "binary"
)

// Registered format names with a known payload layout.
const (
	nameHTML      = "HTML Format"
	nameRTF       = "Rich Text Format"
	nameURL       = "UniformResourceLocator"
	nameURLWide   = "UniformResourceLocatorW"
	nameFileName  = "FileName"
	nameFileNameW = "FileNameW"
)

// KindOf classifies the payload of f.
func KindOf(f clipboard.Format) Kind {
	if f.Size() == 0 {
		return KindEmpty
	}
	if name, ok := f.Name(); ok {
		switch {
		case name == nameHTML:
			return KindHTML
		case name == nameRTF:
			return KindRTF
		case name == nameURL, name == nameURLWide, name == nameFileName, name == nameFileNameW,
			strings.HasPrefix(name, "text/"):
			return KindText
		case strings.HasPrefix(name, "image/"), name == "PNG", name == "JFIF", name == "GIF":
			return KindImage
		}
		return KindBinary
	}
	switch f.Number() {
	case clipboard.CF_TEXT, clipboard.CF_OEMTEXT, clipboard.CF_UNICODETEXT, clipboard.CF_DSPTEXT:
		return KindText
	case clipboard.CF_DIB, clipboard.CF_DIBV5, clipboard.CF_TIFF:
		return KindImage
	case clipboard.CF_HDROP:
		return KindFiles
	case clipboard.CF_LOCALE:
		return KindLocale
	}
	return KindBinary
}

// Render returns a one-line preview of f of at most maxLen runes. A
// non-positive maxLen disables truncation.
func Render(f clipboard.Format, maxLen int) string {
	return Truncate(oneLine(render(f)), maxLen)
}

func render(f clipboard.Format) string {
	data := f.Data
	if len(data) == 0 {
		return "(empty)"
	}

	if name, ok := f.Name(); ok {
		switch name {
		case nameHTML:
			return HTMLFragment(data)
		case nameRTF:
			return RTFText(data)
		case nameURLWide, nameFileNameW:
			return UTF16Text(data)
		case nameURL, nameFileName:
			return ANSIText(data)
		}
		if strings.HasPrefix(name, "text/") {
			return strings.ToValidUTF8(string(cutNUL(data)), "?")
		}
		return HexDump(data, hexBytes)
	}

	switch f.Number() {
	case clipboard.CF_TEXT, clipboard.CF_DSPTEXT:
		return ANSIText(data)
	case clipboard.CF_OEMTEXT:
		return decode(charmap.CodePage437, cutNUL(data))
	case clipboard.CF_UNICODETEXT:
		return UTF16Text(data)
	case clipboard.CF_LOCALE:
		return Locale(data)
	case clipboard.CF_HDROP:
		return FileList(data)
	case clipboard.CF_DIB, clipboard.CF_DIBV5:
		return Bitmap(data)
	}
	return HexDump(data, hexBytes)
}

// ANSIText decodes NUL-terminated Windows-1252 text.
func ANSIText(data []byte) string {
	return decode(charmap.Windows1252, cutNUL(data))
}

// UTF16Text decodes NUL-terminated UTF-16LE text.
func UTF16Text(data []byte) string {
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			data = data[:i]
			break
		}
	}
	return decode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data)
}

func decode(enc encoding.Encoding, data []byte) string {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "?")
	}
	return string(out)
}

func cutNUL(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

var htmlOffset = regexp.MustCompile(`(?m)^(StartFragment|EndFragment|StartHTML|EndHTML):(-?\d+)\r?$`)

// HTMLFragment extracts the fragment of a CF_HTML payload and renders it
// as Markdown.
func HTMLFragment(data []byte) string {
	data = cutNUL(data)

	offsets := map[string]int{}
	for _, m := range htmlOffset.FindAllSubmatch(data, -1) {
		if n, err := strconv.Atoi(string(m[2])); err == nil {
			offsets[string(m[1])] = n
		}
	}

	html := string(data)
	if start, end, ok := span(offsets, "StartFragment", "EndFragment", len(data)); ok {
		html = string(data[start:end])
	} else if start, end, ok := span(offsets, "StartHTML", "EndHTML", len(data)); ok {
		html = string(data[start:end])
	} else if i := bytes.Index(bytes.ToLower(data), []byte("<html")); i >= 0 {
		html = string(data[i:])
	}

	return HTMLToMarkdown(html)
}

func span(offsets map[string]int, startKey, endKey string, size int) (int, int, bool) {
	start, ok1 := offsets[startKey]
	end, ok2 := offsets[endKey]
	if !ok1 || !ok2 || start < 0 || end > size || start > end {
		return 0, 0, false
	}
	return start, end, true
}

var sanitizer = bluemonday.UGCPolicy()

var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		strikethrough.NewStrikethroughPlugin(),
		table.NewTablePlugin(),
	),
)

// HTMLToMarkdown sanitizes html and converts it to Markdown.
func HTMLToMarkdown(html string) string {
	clean := sanitizer.Sanitize(html)

	markdown, err := markdownConverter.ConvertString(clean)
	if err != nil {
		return clean
	}
	return strings.TrimSpace(markdown)
}

var (
	rtfDestination = regexp.MustCompile(`\{\\\*[^{}]*\}`)
	rtfHeaderGroup = regexp.MustCompile(`\{\\(fonttbl|colortbl|stylesheet|info)[^{}]*(\{[^{}]*\}[^{}]*)*\}`)
	rtfHexEscape   = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
	rtfControl     = regexp.MustCompile(`\\([a-zA-Z]+)(-?\d+)? ?`)
)

// RTFText strips RTF markup and returns the remaining text.
func RTFText(data []byte) string {
	s := string(cutNUL(data))
	s = rtfHeaderGroup.ReplaceAllString(s, "")
	s = rtfDestination.ReplaceAllString(s, "")
	s = rtfHexEscape.ReplaceAllStringFunc(s, func(esc string) string {
		n, err := strconv.ParseUint(esc[2:], 16, 8)
		if err != nil {
			return ""
		}
		return decode(charmap.Windows1252, []byte{byte(n)})
	})
	s = rtfControl.ReplaceAllStringFunc(s, func(word string) string {
		switch rtfControl.FindStringSubmatch(word)[1] {
		case "par", "line":
			return "\n"
		case "tab":
			return "\t"
		}
		return ""
	})
	s = strings.NewReplacer(`\{`, "{", `\}`, "}", `\\`, `\`, "{", "", "}", "").Replace(s)
	return strings.TrimSpace(s)
}

// Locale formats a CF_LOCALE payload, a little-endian LCID.
func Locale(data []byte) string {
	if len(data) < 4 {
		return HexDump(data, hexBytes)
	}
	lcid := binary.LittleEndian.Uint32(data)
	return fmt.Sprintf("LCID 0x%04X (%d)", lcid, lcid)
}

const dropFilesHeader = 20

// FileList formats a CF_HDROP payload: a DROPFILES header followed by a
// double-NUL terminated list of paths.
func FileList(data []byte) string {
	paths := DroppedFiles(data)
	if paths == nil {
		return HexDump(data, hexBytes)
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(strings.ReplaceAll(p, `\`, "/"))
	}
	noun := "files"
	if len(paths) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s: %s", len(paths), noun, strings.Join(names, ", "))
}

// DroppedFiles returns the paths in a CF_HDROP payload, or nil if the
// payload is malformed.
func DroppedFiles(data []byte) []string {
	if len(data) < dropFilesHeader {
		return nil
	}
	offset := binary.LittleEndian.Uint32(data[0:4])
	wide := binary.LittleEndian.Uint32(data[16:20]) != 0
	if offset < dropFilesHeader || int(offset) > len(data) {
		return nil
	}

	list := data[offset:]
	paths := []string{}
	if wide {
		start := 0
		for i := 0; i+1 < len(list); i += 2 {
			if list[i] != 0 || list[i+1] != 0 {
				continue
			}
			if i == start {
				break
			}
			paths = append(paths, UTF16Text(list[start:i]))
			start = i + 2
		}
	} else {
		for _, p := range bytes.Split(list, []byte{0}) {
			if len(p) == 0 {
				break
			}
			paths = append(paths, ANSIText(p))
		}
	}
	return paths
}

const bitmapInfoHeader = 16

// Bitmap describes a CF_DIB or CF_DIBV5 payload from its
// BITMAPINFOHEADER.
func Bitmap(data []byte) string {
	if len(data) < bitmapInfoHeader {
		return HexDump(data, hexBytes)
	}
	width := int32(binary.LittleEndian.Uint32(data[4:8]))
	height := int32(binary.LittleEndian.Uint32(data[8:12]))
	bpp := binary.LittleEndian.Uint16(data[14:16])
	if height < 0 {
		height = -height
	}
	return fmt.Sprintf("bitmap %dx%d, %d bpp", width, height, bpp)
}

// HexDump renders the first n bytes of data as hex pairs.
func HexDump(data []byte, n int) string {
	if len(data) <= n {
		return fmt.Sprintf("% x", data)
	}
	return fmt.Sprintf("% x …", data[:n])
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to maxLen runes, ending with an ellipsis when cut.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen == 1 {
		return ellipsis
	}
	return string(runes[:maxLen-1]) + ellipsis
}
