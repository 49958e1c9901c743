package cmd

import (
	"strconv"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/history"
	"clipkeeper/pkg/logger"
	"clipkeeper/pkg/store"

	"github.com/spf13/cobra"
)

// SaveOutput summarizes a capture for structured output.
type SaveOutput struct {
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	HistoryID string `json:"history_id,omitempty" yaml:"history_id,omitempty"`
	Formats   int    `json:"formats" yaml:"formats"`
	Bytes     int    `json:"bytes" yaml:"bytes"`
	Warnings  int    `json:"warnings" yaml:"warnings"`
}

func newSaveCmd() *cobra.Command {
	var label string

	return NewCommand("save [file]",
		"Capture the clipboard into a snapshot file",
		`Capture every format currently on the clipboard and write it to a JSON
snapshot file. Without a file argument the configured snapshot path is used.

Formats that cannot be read are skipped with a warning; the summary shows how
many were captured.`).
		WithExample(`  # Save to the default snapshot file
  clipkeeper save

  # Save to a specific file
  clipkeeper save ~/clip.json

  # Also keep a labelled copy in the history
  clipkeeper save --label "before refactor"`).
		WithMaxArgs(1).
		WithFlags(func(cmd *cobra.Command) {
			cmd.Flags().StringVar(&label, "label", "", "Also record the snapshot in the history under this label")
		}).
		WithRun(func(cmd *cobra.Command, args []string) error {
			path, err := store.ResolvePath(snapshotPath(args))
			if err != nil {
				return err
			}

			session := newClipboardSession()
			snap, err := session.capture(cmd.Context())
			if err != nil {
				return err
			}

			if IsDryRun() {
				details := map[string]string{
					"path":    path,
					"formats": strconv.Itoa(snap.Len()),
					"size":    FormatSize(int64(snap.TotalSize())),
				}
				if label != "" {
					details["history label"] = label
				}
				PrintDryRunAction(cmd.ErrOrStderr(), "save the clipboard", details)
				return nil
			}

			if _, err := store.Save(snap, path); err != nil {
				return err
			}
			logger.Info().Str("path", path).Int("formats", snap.Len()).Msg("Snapshot saved")

			result := SaveOutput{
				Path:     path,
				Formats:  snap.Len(),
				Bytes:    snap.TotalSize(),
				Warnings: len(session.warnings),
			}

			if cmd.Flags().Changed("label") {
				entry, err := recordHistory(label, snap)
				if err != nil {
					return err
				}
				result.HistoryID = entry.ID
			}

			return printSaveOutput(cmd, result)
		}).
		Build()
}

func snapshotPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return appConfig.Snapshot.Path
}

// recordHistory stores snap in the history and applies the configured
// retention.
func recordHistory(label string, snap clipboard.Snapshot) (history.Entry, error) {
	hm, err := history.NewManagerFromConfig(appConfig)
	if err != nil {
		return history.Entry{}, errors.HistoryError("Failed to open history database", err)
	}
	defer hm.Close()

	entry, err := hm.Add(label, snap)
	if err != nil {
		return history.Entry{}, errors.HistoryError("Failed to record snapshot", err)
	}

	removed, err := hm.Prune(history.RetentionFromConfig(appConfig))
	if err != nil {
		return entry, errors.HistoryError("Failed to apply history retention", err)
	}
	if removed > 0 {
		logger.Debug().Int("removed", removed).Msg("Pruned history")
	}
	return entry, nil
}

func printSaveOutput(cmd *cobra.Command, result SaveOutput) error {
	output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
	if output.IsStructured() {
		return output.Write(result)
	}

	rows := [][]string{}
	if result.Path != "" {
		rows = append(rows, []string{"Path", result.Path})
	}
	if result.HistoryID != "" {
		rows = append(rows, []string{"History ID", result.HistoryID})
	}
	rows = append(rows,
		[]string{"Formats", strconv.Itoa(result.Formats)},
		[]string{"Size", FormatSize(int64(result.Bytes))},
	)
	if result.Warnings > 0 {
		rows = append(rows, []string{"Skipped", strconv.Itoa(result.Warnings)})
	}
	output.Table([]string{"SNAPSHOT", ""}, rows)
	return nil
}
