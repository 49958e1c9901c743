package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(newVersionCmd())

	root.AddCommand(newSaveCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newPeekCmd())

	historyCmd := newHistoryCmd()
	historyCmd.AddCommand(
		newHistoryListCmd(),
		newHistorySaveCmd(),
		newHistoryRestoreCmd(),
		newHistoryShowCmd(),
		newHistoryDeleteCmd(),
		newHistoryPruneCmd(),
		newHistoryStatsCmd(),
	)
	root.AddCommand(historyCmd)

	configCmd := newConfigCmd()
	configCmd.AddCommand(
		newConfigShowCmd(),
		newConfigPathCmd(),
		newConfigInitCmd(),
	)
	root.AddCommand(configCmd)
}
