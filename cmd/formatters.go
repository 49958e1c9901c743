package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/history"
	"clipkeeper/pkg/preview"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatTable is the default human-readable table format
	FormatTable OutputFormat = "table"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
)

// ValidFormats returns a list of valid output formats
func ValidFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

func parseOutputFormat(format string) (OutputFormat, error) {
	switch f := OutputFormat(format); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", errors.ValidationError(fmt.Sprintf("unknown output format '%s' (valid: table, json, yaml)", format))
}

// OutputWriter handles structured output formatting
type OutputWriter struct {
	format OutputFormat
	writer io.Writer
}

// NewOutputWriter creates a new output writer with the specified format
func NewOutputWriter(format string, w io.Writer) *OutputWriter {
	f, err := parseOutputFormat(format)
	if err != nil {
		f = FormatTable
	}
	return &OutputWriter{
		format: f,
		writer: w,
	}
}

// GetFormat returns the current format
func (w *OutputWriter) GetFormat() OutputFormat {
	return w.format
}

// IsStructured returns true if the format is JSON or YAML
func (w *OutputWriter) IsStructured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs the data in the configured format
func (w *OutputWriter) Write(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		// Table format is handled by individual commands
		return nil
	}
}

// Printf writes table-mode text.
func (w *OutputWriter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(w.writer, format, args...)
}

// Table renders a table with a header row.
func (w *OutputWriter) Table(headers []string, rows [][]string) {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w.writer, t.Render())
}

func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

// FormatAge renders ts relative to now, e.g. "3 minutes ago".
func FormatAge(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return humanize.Time(ts)
}

// FormatSize renders n bytes, e.g. "1.2 KiB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// FormatOutput is one clipboard format in structured output.
type FormatOutput struct {
	Position int     `json:"position" yaml:"position"`
	FormatID uint32  `json:"format_id" yaml:"format_id"`
	Name     *string `json:"format_name" yaml:"format_name"`
	Display  string  `json:"display_name" yaml:"display_name"`
	Kind     string  `json:"kind" yaml:"kind"`
	Size     int     `json:"size" yaml:"size"`
	Preview  string  `json:"preview" yaml:"preview"`
}

func mapToFormatOutputs(formats []clipboard.Format, previewLen int) []FormatOutput {
	out := make([]FormatOutput, 0, len(formats))
	for i, f := range formats {
		o := FormatOutput{
			Position: i + 1,
			FormatID: f.Number(),
			Display:  f.DisplayName(),
			Kind:     string(preview.KindOf(f)),
			Size:     f.Size(),
			Preview:  preview.Render(f, previewLen),
		}
		if name, ok := f.Name(); ok {
			o.Name = &name
		}
		out = append(out, o)
	}
	return out
}

func printFormatsTable(w *OutputWriter, formats []FormatOutput) {
	if len(formats) == 0 {
		w.Printf("No formats.\n")
		return
	}

	rows := make([][]string, 0, len(formats))
	for _, f := range formats {
		rows = append(rows, []string{
			strconv.Itoa(f.Position),
			strconv.FormatUint(uint64(f.FormatID), 10),
			f.Display,
			f.Kind,
			FormatSize(int64(f.Size)),
			f.Preview,
		})
	}
	w.Table([]string{"#", "ID", "FORMAT", "KIND", "SIZE", "PREVIEW"}, rows)
}

func printEntriesTable(w *OutputWriter, entries []history.Entry) {
	if len(entries) == 0 {
		w.Printf("No snapshots in history.\n")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{
			e.ShortID(),
			label,
			FormatTimestamp(e.CreatedAt),
			FormatAge(e.CreatedAt),
			strconv.Itoa(e.FormatCount),
			FormatSize(e.TotalBytes),
		})
	}
	w.Table([]string{"ID", "LABEL", "CREATED", "AGE", "FORMATS", "SIZE"}, rows)
}
