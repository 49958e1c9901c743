package cmd

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/filter"
	"clipkeeper/pkg/history"
	"clipkeeper/pkg/logger"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return NewCommand("history",
		"Manage snapshots kept in the local history",
		`Keep labelled clipboard snapshots in a local SQLite database and restore
them later. Entries are referred to by their id or any unique prefix of it,
as shown in the ID column of 'clipkeeper history list'.`).
		WithAliases("hist").
		Build()
}

func newHistoryListCmd() *cobra.Command {
	var (
		match     string
		matchMode string
		since     time.Duration
		limit     int
	)

	return NewCommand("list", "List snapshots in the history", "").
		WithExample(`  # Newest snapshots first
  clipkeeper history list

  # Snapshots from the last day whose label mentions "release"
  clipkeeper history list --since 24h --match release

  # The five newest, as JSON
  clipkeeper history list --limit 5 --format json`).
		WithAliases("ls").
		WithExactArgs(0).
		WithFlags(func(cmd *cobra.Command) {
			cmd.Flags().StringVar(&match, "match", "", "Only list entries whose label matches")
			cmd.Flags().StringVar(&matchMode, "match-mode", "contains", "How --match is applied (contains, exact, regex, fuzzy)")
			cmd.Flags().DurationVar(&since, "since", 0, "Only list entries newer than this (e.g. 2h, 30m)")
			cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries to list (0 lists all)")
		}).
		WithHistory(func(cmd *cobra.Command, args []string, hm *history.Manager) error {
			mode, err := filter.ParseMode(matchMode)
			if err != nil {
				return errors.ValidationError(err.Error())
			}
			if limit < 0 {
				return errors.ValidationError(fmt.Sprintf("--limit must not be negative, got %d", limit))
			}
			if since < 0 {
				return errors.ValidationError(fmt.Sprintf("--since must not be negative, got %s", since))
			}

			f := filter.EntryFilter{Label: match, LabelMode: mode, Limit: limit}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}

			entries, err := hm.List(f)
			if err != nil {
				return errors.HistoryError("Failed to list history", err)
			}
			logger.Debug().Int("count", len(entries)).Msg("Listed history")

			output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
			if output.IsStructured() {
				return output.Write(entries)
			}
			printEntriesTable(output, entries)
			return nil
		}).
		Build()
}

func newHistorySaveCmd() *cobra.Command {
	var label string

	return NewCommand("save", "Capture the clipboard into the history", "").
		WithExample(`  clipkeeper history save --label "design review"`).
		WithExactArgs(0).
		WithFlags(func(cmd *cobra.Command) {
			cmd.Flags().StringVarP(&label, "label", "l", "", "Label of the new entry")
		}).
		WithRun(func(cmd *cobra.Command, args []string) error {
			session := newClipboardSession()
			snap, err := session.capture(cmd.Context())
			if err != nil {
				return err
			}

			if IsDryRun() {
				PrintDryRunAction(cmd.ErrOrStderr(), "add a history entry", map[string]string{
					"label":   label,
					"formats": strconv.Itoa(snap.Len()),
					"size":    FormatSize(int64(snap.TotalSize())),
				})
				return nil
			}

			entry, err := recordHistory(label, snap)
			if err != nil {
				return err
			}

			return printSaveOutput(cmd, SaveOutput{
				HistoryID: entry.ID,
				Formats:   entry.FormatCount,
				Bytes:     int(entry.TotalBytes),
				Warnings:  len(session.warnings),
			})
		}).
		Build()
}

func newHistoryRestoreCmd() *cobra.Command {
	return NewCommand("restore <id>", "Put a history entry back on the clipboard", "").
		WithExample(`  clipkeeper history restore 3f2a9c1d --yes`).
		WithExactArgs(1).
		WithHistory(func(cmd *cobra.Command, args []string, hm *history.Manager) error {
			entry, snap, err := hm.Get(args[0])
			if err != nil {
				return historyLookupError(hm, args[0], err)
			}
			return restoreSnapshot(cmd, entryLabel(entry), snap)
		}).
		Build()
}

func newHistoryShowCmd() *cobra.Command {
	var flags formatFlags

	return NewCommand("show <id>", "List the formats of a history entry", "").
		WithExample(`  clipkeeper history show 3f2a --custom-only`).
		WithExactArgs(1).
		WithFlags(flags.register).
		WithHistory(func(cmd *cobra.Command, args []string, hm *history.Manager) error {
			if _, err := flags.filter(); err != nil {
				return err
			}
			_, snap, err := hm.Get(args[0])
			if err != nil {
				return historyLookupError(hm, args[0], err)
			}
			return flags.printSnapshot(cmd, snap)
		}).
		Build()
}

func newHistoryDeleteCmd() *cobra.Command {
	return NewCommand("delete <id>", "Remove an entry from the history", "").
		WithExample(`  clipkeeper history delete 3f2a9c1d`).
		WithAliases("rm").
		WithExactArgs(1).
		WithHistory(func(cmd *cobra.Command, args []string, hm *history.Manager) error {
			entry, err := hm.Resolve(args[0])
			if err != nil {
				return historyLookupError(hm, args[0], err)
			}

			proceed, err := RequireConfirmation(cmd, "delete a history entry", map[string]string{
				"id":      entry.ID,
				"label":   entry.Label,
				"created": FormatTimestamp(entry.CreatedAt),
			})
			if err != nil || !proceed {
				return err
			}

			if _, err := hm.Delete(entry.ID); err != nil {
				return historyLookupError(hm, entry.ID, err)
			}
			NewOutputWriter(outputFormat, cmd.ErrOrStderr()).Printf("Deleted %s (%s)\n", entry.ShortID(), entryLabel(entry))
			return nil
		}).
		Build()
}

// PruneOutput reports the result of a prune.
type PruneOutput struct {
	Removed   int `json:"removed" yaml:"removed"`
	Remaining int `json:"remaining" yaml:"remaining"`
}

func newHistoryPruneCmd() *cobra.Command {
	var (
		maxEntries int
		maxAge     time.Duration
	)

	return NewCommand("prune", "Apply retention limits to the history",
		`Remove entries older than --max-age and all but the newest --max-entries.
Limits not given on the command line come from the configuration file.`).
		WithExample(`  # Apply the configured limits
  clipkeeper history prune

  # Keep only the ten newest entries
  clipkeeper history prune --max-entries 10 --yes`).
		WithExactArgs(0).
		WithFlags(func(cmd *cobra.Command) {
			cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "Keep at most this many entries (0 keeps all)")
			cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove entries older than this (0 keeps all)")
		}).
		WithHistory(func(cmd *cobra.Command, args []string, hm *history.Manager) error {
			r := history.RetentionFromConfig(appConfig)
			if cmd.Flags().Changed("max-entries") {
				r.MaxEntries = maxEntries
			}
			if cmd.Flags().Changed("max-age") {
				r.MaxAge = maxAge
			}
			if r.MaxEntries < 0 || r.MaxAge < 0 {
				return errors.ValidationError("retention limits must not be negative")
			}

			proceed, err := RequireConfirmation(cmd, "prune the history", map[string]string{
				"max entries": retentionValue(strconv.Itoa(r.MaxEntries), r.MaxEntries == 0),
				"max age":     retentionValue(r.MaxAge.String(), r.MaxAge == 0),
			})
			if err != nil || !proceed {
				return err
			}

			removed, err := hm.Prune(r)
			if err != nil {
				return errors.HistoryError("Failed to prune history", err)
			}
			stats, err := hm.Stats()
			if err != nil {
				return errors.HistoryError("Failed to read history stats", err)
			}

			result := PruneOutput{Removed: removed, Remaining: stats.Entries}
			output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
			if output.IsStructured() {
				return output.Write(result)
			}
			output.Printf("Removed %d entries, %d remaining\n", result.Removed, result.Remaining)
			return nil
		}).
		Build()
}

func newHistoryStatsCmd() *cobra.Command {
	return NewCommand("stats", "Show history size and age", "").
		WithExactArgs(0).
		WithHistory(func(cmd *cobra.Command, args []string, hm *history.Manager) error {
			stats, err := hm.Stats()
			if err != nil {
				return errors.HistoryError("Failed to read history stats", err)
			}

			output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
			if output.IsStructured() {
				return output.Write(stats)
			}

			output.Table([]string{"HISTORY", ""}, [][]string{
				{"Database", appConfig.HistoryPath()},
				{"Entries", strconv.Itoa(stats.Entries)},
				{"Size", FormatSize(stats.TotalBytes)},
				{"Oldest", FormatTimestamp(stats.Oldest)},
				{"Newest", FormatTimestamp(stats.Newest)},
			})
			return nil
		}).
		Build()
}

func retentionValue(v string, unlimited bool) string {
	if unlimited {
		return "unlimited"
	}
	return v
}

func entryLabel(e history.Entry) string {
	if e.Label == "" {
		return "history entry " + e.ShortID()
	}
	return e.Label
}

// historyLookupError maps history lookup failures to exit codes and
// suggests entries with a similar label when nothing matched.
func historyLookupError(hm *history.Manager, ref string, err error) error {
	var ambiguous *history.AmbiguousError
	switch {
	case stderrors.As(err, &ambiguous):
		return errors.AmbiguousSnapshotError(ref, ambiguous.Matches)
	case stderrors.Is(err, history.ErrNotFound):
		notFound := errors.SnapshotNotFoundError(ref)
		if similar := similarLabels(hm, ref); len(similar) > 0 {
			notFound.Suggestion = fmt.Sprintf("Did you mean: %s?", strings.Join(similar, ", "))
		}
		return notFound
	}
	return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
}

func similarLabels(hm *history.Manager, ref string) []string {
	entries, err := hm.List(filter.EntryFilter{})
	if err != nil {
		return nil
	}

	type candidate struct {
		hint     string
		distance int
	}
	var candidates []candidate
	for _, e := range entries {
		if e.Label == "" || !filter.FuzzyMatchRanked(ref, e.Label, 0.5) {
			continue
		}
		candidates = append(candidates, candidate{
			hint:     fmt.Sprintf("'%s' (%s)", e.ShortID(), e.Label),
			distance: filter.LevenshteinDistance(ref, e.Label),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	var out []string
	for i := 0; i < len(candidates) && i < 3; i++ {
		out = append(out, candidates[i].hint)
	}
	return out
}
