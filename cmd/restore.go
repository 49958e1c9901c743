package cmd

import (
	"strconv"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/logger"
	"clipkeeper/pkg/store"

	"github.com/spf13/cobra"
)

// RestoreOutput reports how much of a snapshot reached the clipboard.
type RestoreOutput struct {
	Source   string `json:"source" yaml:"source"`
	Restored int    `json:"restored" yaml:"restored"`
	Total    int    `json:"total" yaml:"total"`
}

func newRestoreCmd() *cobra.Command {
	return NewCommand("restore [file]",
		"Replace the clipboard with a saved snapshot",
		`Load a snapshot file and put every format it holds back on the clipboard.
The current clipboard contents are discarded first, so this asks for
confirmation unless --yes is given.`).
		WithExample(`  # Restore the default snapshot file
  clipkeeper restore

  # Restore without prompting
  clipkeeper restore ~/clip.json --yes

  # Show what would be restored
  clipkeeper restore --dry-run`).
		WithMaxArgs(1).
		WithRun(func(cmd *cobra.Command, args []string) error {
			path, err := store.ResolvePath(snapshotPath(args))
			if err != nil {
				return err
			}

			snap, err := store.Load(path)
			if err != nil {
				return err
			}

			return restoreSnapshot(cmd, path, snap)
		}).
		Build()
}

// restoreSnapshot confirms and then writes snap to the clipboard.
func restoreSnapshot(cmd *cobra.Command, source string, snap clipboard.Snapshot) error {
	proceed, err := RequireConfirmation(cmd, "replace the clipboard contents", map[string]string{
		"source":  source,
		"formats": strconv.Itoa(snap.Len()),
		"size":    FormatSize(int64(snap.TotalSize())),
	})
	if err != nil || !proceed {
		return err
	}

	session := newClipboardSession()
	if err := session.restore(cmd.Context(), snap); err != nil {
		return err
	}

	// Each format that failed produced exactly one warning.
	result := RestoreOutput{
		Source:   source,
		Restored: snap.Len() - len(session.warnings),
		Total:    snap.Len(),
	}
	if result.Restored < 0 {
		result.Restored = 0
	}
	logger.Info().Str("source", source).Int("restored", result.Restored).Int("total", result.Total).Msg("Clipboard restored")

	output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
	if output.IsStructured() {
		return output.Write(result)
	}
	output.Printf("Restored %d/%d formats from %s\n", result.Restored, result.Total, source)
	return nil
}
