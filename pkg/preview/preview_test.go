package preview

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"clipkeeper/pkg/clipboard"

	"github.com/stretchr/testify/assert"
)

func std(id uint32, data []byte) clipboard.Format {
	return clipboard.NewFormat(clipboard.MustStandardFormat(id), data)
}

func custom(t *testing.T, name string, data []byte) clipboard.Format {
	t.Helper()
	id, err := clipboard.CustomFormat(0xC123, name)
	if err != nil {
		t.Fatal(err)
	}
	return clipboard.NewFormat(id, data)
}

func utf16le(s string) []byte {
	var out []byte
	for _, r := range s {
		out = binary.LittleEndian.AppendUint16(out, uint16(r))
	}
	return append(out, 0, 0)
}

func cfHTML(fragment string) []byte {
	const header = "Version:0.9\r\nStartHTML:%010d\r\nEndHTML:%010d\r\nStartFragment:%010d\r\nEndFragment:%010d\r\n"
	pre := "<html><body><!--StartFragment-->"
	post := "<!--EndFragment--></body></html>"
	headerLen := len(strings.ReplaceAll(header, "%010d", "0000000000"))
	startHTML := headerLen
	startFrag := startHTML + len(pre)
	endFrag := startFrag + len(fragment)
	endHTML := endFrag + len(post)

	return []byte(fmt.Sprintf(header, startHTML, endHTML, startFrag, endFrag) + pre + fragment + post)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		format clipboard.Format
		want   string
	}{
		{"ansi text", std(clipboard.CF_TEXT, []byte("hello\x00garbage")), "hello"},
		{"ansi high byte", std(clipboard.CF_TEXT, []byte{'c', 'a', 'f', 0xE9, 0}), "café"},
		{"oem text", std(clipboard.CF_OEMTEXT, []byte{'a', 0x82, 0}), "aé"},
		{"unicode text", std(clipboard.CF_UNICODETEXT, utf16le("héllo")), "héllo"},
		{"multiline text collapsed", std(clipboard.CF_TEXT, []byte("a\r\n  b\tc")), "a b c"},
		{"empty", std(clipboard.CF_TEXT, nil), "(empty)"},
		{"locale", std(clipboard.CF_LOCALE, []byte{0x09, 0x04, 0, 0}), "LCID 0x0409 (1033)"},
		{"short locale", std(clipboard.CF_LOCALE, []byte{0x09}), "09"},
		{"binary", std(clipboard.CF_WAVE, []byte{0xDE, 0xAD, 0xBE, 0xEF}), "de ad be ef"},
		{"html fragment", custom(t, "HTML Format", cfHTML("<b>bold</b> text")), "**bold** text"},
		{"html script stripped", custom(t, "HTML Format", cfHTML("<script>x()</script><i>hi</i>")), "*hi*"},
		{"rtf", custom(t, "Rich Text Format", []byte(`{\rtf1\ansi{\fonttbl{\f0 Arial;}}\f0\pard Hello {\b world}\par}`)), "Hello world"},
		{"rtf hex escape", custom(t, "Rich Text Format", []byte(`{\rtf1 caf\'e9}`)), "café"},
		{"url", custom(t, "UniformResourceLocator", []byte("https://example.com\x00")), "https://example.com"},
		{"wide url", custom(t, "UniformResourceLocatorW", utf16le("https://example.com")), "https://example.com"},
		{"mime text", custom(t, "text/plain", []byte("plain")), "plain"},
		{"private custom", custom(t, "Chromium internal source URL", []byte{1, 2, 3}), "01 02 03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.format, 0))
		})
	}
}

func TestRender_Truncates(t *testing.T) {
	f := std(clipboard.CF_UNICODETEXT, utf16le(strings.Repeat("é", 100)))

	out := Render(f, 10)
	assert.Equal(t, 10, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))

	assert.Equal(t, "é", Render(std(clipboard.CF_UNICODETEXT, utf16le("é")), 10))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab…", Truncate("abcd", 3))
	assert.Equal(t, "…", Truncate("abcd", 1))
	assert.Equal(t, "abcd", Truncate("abcd", 0))
}

func TestHexDump(t *testing.T) {
	data := make([]byte, 20)
	assert.Equal(t, "00 00 00 …", HexDump(data, 3))
	assert.Equal(t, "", HexDump(nil, 3))
}

func dropFiles(wide bool, paths ...string) []byte {
	header := make([]byte, dropFilesHeader)
	binary.LittleEndian.PutUint32(header[0:4], dropFilesHeader)
	if wide {
		binary.LittleEndian.PutUint32(header[16:20], 1)
	}
	out := header
	for _, p := range paths {
		if wide {
			out = append(out, utf16le(p)...)
		} else {
			out = append(out, append([]byte(p), 0)...)
		}
	}
	if wide {
		return append(out, 0, 0)
	}
	return append(out, 0)
}

func TestFileList(t *testing.T) {
	wide := std(clipboard.CF_HDROP, dropFiles(true, `C:\Users\me\report.pdf`, `C:\tmp\notes.txt`))
	assert.Equal(t, "2 files: report.pdf, notes.txt", Render(wide, 0))
	assert.Equal(t, []string{`C:\Users\me\report.pdf`, `C:\tmp\notes.txt`}, DroppedFiles(wide.Data))

	narrow := std(clipboard.CF_HDROP, dropFiles(false, `D:\a.txt`))
	assert.Equal(t, "1 file: a.txt", Render(narrow, 0))

	assert.Nil(t, DroppedFiles([]byte{1, 2, 3}))
	bad := make([]byte, dropFilesHeader)
	binary.LittleEndian.PutUint32(bad[0:4], 999)
	assert.Nil(t, DroppedFiles(bad))
}

func TestBitmap(t *testing.T) {
	hdr := make([]byte, 40)
	binary.LittleEndian.PutUint32(hdr[0:4], 40)
	binary.LittleEndian.PutUint32(hdr[4:8], 640)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(0xFFFFFE20)) // -480, top-down
	binary.LittleEndian.PutUint16(hdr[12:14], 1)
	binary.LittleEndian.PutUint16(hdr[14:16], 32)

	assert.Equal(t, "bitmap 640x480, 32 bpp", Render(std(clipboard.CF_DIB, hdr), 0))
	assert.Equal(t, "01 02", Render(std(clipboard.CF_DIBV5, []byte{1, 2}), 0))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		format clipboard.Format
		want   Kind
	}{
		{std(clipboard.CF_TEXT, nil), KindEmpty},
		{std(clipboard.CF_UNICODETEXT, []byte{'a', 0}), KindText},
		{std(clipboard.CF_DIB, []byte{1}), KindImage},
		{std(clipboard.CF_HDROP, []byte{1}), KindFiles},
		{std(clipboard.CF_LOCALE, []byte{1}), KindLocale},
		{std(clipboard.CF_WAVE, []byte{1}), KindBinary},
		{custom(t, "HTML Format", []byte{1}), KindHTML},
		{custom(t, "Rich Text Format", []byte{1}), KindRTF},
		{custom(t, "PNG", []byte{1}), KindImage},
		{custom(t, "text/html", []byte{1}), KindText},
		{custom(t, "Ole Private Data", []byte{1}), KindBinary},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.format), tt.format.DisplayName())
	}
}
