package cmd

import (
	"fmt"
	"strings"

	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/preview"

	atottoclipboard "github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// readClipboardText is replaced in tests.
var readClipboardText = atottoclipboard.ReadAll

// PeekOutput is the plain-text clipboard content in structured output.
type PeekOutput struct {
	Text  string `json:"text" yaml:"text"`
	Chars int    `json:"chars" yaml:"chars"`
}

func newPeekCmd() *cobra.Command {
	var width int

	return NewCommand("peek",
		"Print the plain-text clipboard content",
		`Print the text currently on the clipboard. Unlike show --live this only
reads plain text, and works on every platform.`).
		WithExample(`  # Print the clipboard text
  clipkeeper peek

  # Only the first line, shortened
  clipkeeper peek --width 40`).
		WithExactArgs(0).
		WithFlags(func(cmd *cobra.Command) {
			cmd.Flags().IntVar(&width, "width", 0, "Shorten the text to one line of at most this many characters (0 prints it all)")
		}).
		WithRun(func(cmd *cobra.Command, args []string) error {
			if width < 0 {
				return errors.ValidationError(fmt.Sprintf("--width must not be negative, got %d", width))
			}

			text, err := readClipboardText()
			if err != nil {
				return errors.NewWithAll(errors.ExitCodeClipboardUnavailable, "Failed to read clipboard text", err,
					"Make sure a clipboard is available (xclip, xsel or wl-clipboard on Linux).")
			}

			result := PeekOutput{Text: text, Chars: len([]rune(text))}
			output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
			if output.IsStructured() {
				return output.Write(result)
			}

			if width > 0 {
				text = preview.Truncate(strings.Join(strings.Fields(text), " "), width)
			}
			output.Printf("%s", text)
			if !strings.HasSuffix(text, "\n") {
				output.Printf("\n")
			}
			return nil
		}).
		Build()
}
