package cmd

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"clipkeeper/pkg/errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	responseYes = "yes"
	responseY   = "y"
)

// IsDryRun returns true if dry-run mode is enabled
func IsDryRun() bool {
	return dryRunFlag
}

// IsAssumeYes returns true if we should skip confirmation prompts
func IsAssumeYes() bool {
	return assumeYesFlag
}

// PrintDryRunAction prints a dry-run action with details
func PrintDryRunAction(w io.Writer, action string, details map[string]string) {
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan)

	_, _ = yellow.Fprintf(w, "[DRY-RUN] Would %s:\n", action)
	for _, key := range sortedKeys(details) {
		_, _ = cyan.Fprintf(w, "  %s: ", key)
		fmt.Fprintln(w, details[key])
	}
}

// ConfirmPrompt asks the user for confirmation on out and reads the answer
// from in.
func ConfirmPrompt(in io.Reader, out io.Writer, message string) (bool, error) {
	if assumeYesFlag {
		return true, nil
	}

	yellow := color.New(color.FgYellow)
	_, _ = yellow.Fprintf(out, "%s [y/N]: ", message)

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == responseY || response == responseYes, nil
}

// ConfirmDestructive prompts for confirmation before a destructive action.
// In dry-run mode it prints the action and returns false.
func ConfirmDestructive(cmd *cobra.Command, action string, details map[string]string) (bool, error) {
	out := cmd.ErrOrStderr()
	if dryRunFlag {
		PrintDryRunAction(out, action, details)
		return false, nil
	}
	if assumeYesFlag {
		return true, nil
	}

	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprintf(out, "Warning: You are about to %s\n\n", action)

	if len(details) > 0 {
		for _, key := range sortedKeys(details) {
			fmt.Fprintf(out, "  %s: %s\n", key, details[key])
		}
		fmt.Fprintln(out)
	}

	return ConfirmPrompt(cmd.InOrStdin(), out, "Do you want to continue")
}

// RequireConfirmation returns a cancellation error unless the user agrees.
// proceed is false in dry-run mode, where the caller stops without error.
func RequireConfirmation(cmd *cobra.Command, action string, details map[string]string) (proceed bool, err error) {
	confirmed, err := ConfirmDestructive(cmd, action, details)
	if err != nil {
		return false, err
	}
	if dryRunFlag {
		return false, nil
	}
	if !confirmed {
		return false, errors.CancelledError(action)
	}
	return true, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
