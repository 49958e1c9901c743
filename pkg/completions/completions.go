package completions

import (
	"fmt"
	"strings"

	"clipkeeper/pkg/config"
	"clipkeeper/pkg/filter"
	"clipkeeper/pkg/history"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const maxHistorySuggestions = 50

type Completer struct {
	openHistory func() (*history.Manager, error)
}

func NewCompleter() *Completer {
	return &Completer{openHistory: openHistoryFromConfig}
}

func openHistoryFromConfig() (*history.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return history.NewManagerFromConfig(cfg)
}

// CompleteHistoryIDs suggests short ids of stored snapshots, newest first,
// described by label, format count and size.
func (c *Completer) CompleteHistoryIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	hm, err := c.openHistory()
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	defer hm.Close()

	entries, err := hm.List(filter.EntryFilter{Limit: maxHistorySuggestions})
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = humanize.Time(e.CreatedAt)
		}
		items = append(items, fmt.Sprintf("%s\t%s (%d formats, %s)", e.ShortID(), label, e.FormatCount, humanize.IBytes(uint64(e.TotalBytes))))
	}

	return c.filterPrefix(items, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := []string{
		"table\tHuman readable table",
		"json\tJSON document",
		"yaml\tYAML document",
	}
	return c.filterPrefix(formats, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteMatchMode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	results := c.filterPrefix(filter.ModeNames, toComplete)

	for i, mode := range results {
		results[i] = fmt.Sprintf("%s\t%s", mode, getMatchModeDescription(mode))
	}

	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteLogLevel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	levels := []string{"debug", "info", "warn", "error", "off"}
	return c.filterPrefix(levels, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	result := []string{}
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

func getMatchModeDescription(mode string) string {
	switch mode {
	case "exact":
		return "Whole name, case insensitive"
	case "contains":
		return "Substring, case insensitive"
	case "regex":
		return "Go regular expression"
	case "fuzzy":
		return "Characters in order"
	default:
		return ""
	}
}

func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()

	rootCmd.RegisterFlagCompletionFunc("format", completer.CompleteOutputFormat)
	rootCmd.RegisterFlagCompletionFunc("log-level", completer.CompleteLogLevel)

	for _, path := range [][]string{
		{"history", "restore"},
		{"history", "show"},
		{"history", "delete"},
	} {
		if cmd := findCommand(rootCmd, path); cmd != nil {
			cmd.ValidArgsFunction = completer.CompleteHistoryIDs
		}
	}

	for _, path := range [][]string{
		{"show"},
		{"history", "show"},
		{"history", "list"},
	} {
		if cmd := findCommand(rootCmd, path); cmd != nil {
			cmd.RegisterFlagCompletionFunc("match-mode", completer.CompleteMatchMode)
		}
	}
}

// findCommand returns the command at path, or nil when any part is missing.
func findCommand(rootCmd *cobra.Command, path []string) *cobra.Command {
	cmd, rest, err := rootCmd.Find(path)
	if err != nil || cmd == nil || len(rest) > 0 || cmd.Name() != path[len(path)-1] {
		return nil
	}
	return cmd
}
