package cmd

import (
	"fmt"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/filter"
	"clipkeeper/pkg/preview"
	"clipkeeper/pkg/store"

	"github.com/spf13/cobra"
)

// formatFlags are the display options shared by show and history show.
type formatFlags struct {
	match      string
	matchMode  string
	customOnly bool
	minSize    int
	width      int
}

func (f *formatFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.match, "match", "", "Only show formats whose name matches")
	cmd.Flags().StringVar(&f.matchMode, "match-mode", "contains", "How --match is applied (contains, exact, regex, fuzzy)")
	cmd.Flags().BoolVar(&f.customOnly, "custom-only", false, "Only show application registered formats")
	cmd.Flags().IntVar(&f.minSize, "min-size", 0, "Only show formats of at least this many bytes")
	cmd.Flags().IntVar(&f.width, "width", preview.DefaultMaxLen, "Maximum preview length in characters")
}

func (f *formatFlags) filter() (*filter.FormatFilter, error) {
	mode, err := filter.ParseMode(f.matchMode)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	if f.minSize < 0 {
		return nil, errors.ValidationError(fmt.Sprintf("--min-size must not be negative, got %d", f.minSize))
	}
	if f.width <= 0 {
		return nil, errors.ValidationError(fmt.Sprintf("--width must be positive, got %d", f.width))
	}
	return &filter.FormatFilter{
		Name:       f.match,
		NameMode:   mode,
		CustomOnly: f.customOnly,
		MinSize:    f.minSize,
	}, nil
}

// printSnapshot writes the formats of snap that pass the flags.
func (f *formatFlags) printSnapshot(cmd *cobra.Command, snap clipboard.Snapshot) error {
	ff, err := f.filter()
	if err != nil {
		return err
	}

	formats, err := ff.Apply(snap)
	if err != nil {
		return errors.ValidationError(fmt.Sprintf("invalid --match pattern: %v", err))
	}

	outputs := mapToFormatOutputs(formats, f.width)
	output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
	if output.IsStructured() {
		return output.Write(outputs)
	}

	printFormatsTable(output, outputs)
	if len(formats) != snap.Len() {
		output.Printf("Showing %d of %d formats (%s total)\n", len(formats), snap.Len(), FormatSize(int64(snap.TotalSize())))
	} else if snap.Len() > 0 {
		output.Printf("%d formats, %s\n", snap.Len(), FormatSize(int64(snap.TotalSize())))
	}
	return nil
}

func newShowCmd() *cobra.Command {
	var (
		flags formatFlags
		live  bool
	)

	return NewCommand("show [file]",
		"List the formats in a snapshot",
		`List every format of a snapshot file with its size and a short preview of
its content. With --live the current clipboard is inspected instead.`).
		WithExample(`  # Inspect the default snapshot file
  clipkeeper show

  # Inspect the clipboard right now
  clipkeeper show --live

  # Only formats registered by applications, as JSON
  clipkeeper show --custom-only --format json

  # Formats whose name looks like HTML
  clipkeeper show --match html --match-mode fuzzy`).
		WithAliases("ls").
		WithMaxArgs(1).
		WithFlags(func(cmd *cobra.Command) {
			flags.register(cmd)
			cmd.Flags().BoolVar(&live, "live", false, "Inspect the current clipboard instead of a file")
		}).
		WithRun(func(cmd *cobra.Command, args []string) error {
			if live && len(args) > 0 {
				return errors.ValidationError("--live cannot be combined with a file argument")
			}
			if _, err := flags.filter(); err != nil {
				return err
			}

			var snap clipboard.Snapshot
			var err error
			if live {
				snap, err = newClipboardSession().capture(cmd.Context())
			} else {
				snap, err = store.Load(snapshotPath(args))
			}
			if err != nil {
				return err
			}

			return flags.printSnapshot(cmd, snap)
		}).
		Build()
}
