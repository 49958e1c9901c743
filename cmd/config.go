package cmd

import (
	"fmt"
	"os"

	"clipkeeper/pkg/config"
	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/store"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigOutput is the effective configuration with the paths it resolves to.
type ConfigOutput struct {
	ConfigFile   string         `json:"config_file" yaml:"config_file"`
	SnapshotFile string         `json:"snapshot_file" yaml:"snapshot_file"`
	HistoryDB    string         `json:"history_db" yaml:"history_db"`
	Settings     *config.Config `json:"settings" yaml:"settings"`
}

func newConfigCmd() *cobra.Command {
	return NewCommand("config",
		"Manage clipkeeper configuration",
		`Show and create the clipkeeper configuration file. Every setting can also be
overridden with a CLIPKEEPER_* environment variable.`).
		Build()
}

func newConfigShowCmd() *cobra.Command {
	return NewCommand("show", "Show the effective configuration",
		`Display the configuration after defaults, the config file and environment
overrides have been applied.`).
		WithExactArgs(0).
		WithRun(func(cmd *cobra.Command, args []string) error {
			configPath, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			snapshotFile, err := store.ResolvePath(appConfig.Snapshot.Path)
			if err != nil {
				return err
			}

			result := ConfigOutput{
				ConfigFile:   configPath,
				SnapshotFile: snapshotFile,
				HistoryDB:    appConfig.HistoryPath(),
				Settings:     appConfig,
			}

			output := NewOutputWriter(outputFormat, cmd.OutOrStdout())
			if output.IsStructured() {
				return output.Write(result)
			}

			exists := ""
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				exists = " (not created, using defaults)"
			}
			output.Printf("Config file:   %s%s\n", configPath, exists)
			output.Printf("Snapshot file: %s\n", snapshotFile)
			output.Printf("History DB:    %s\n\n", result.HistoryDB)

			data, err := yaml.Marshal(appConfig)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			output.Printf("%s", data)
			return nil
		}).
		Build()
}

func newConfigPathCmd() *cobra.Command {
	return NewCommand("path", "Show configuration file path", "").
		WithExactArgs(0).
		WithRun(func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}).
		Build()
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	return NewCommand("init", "Write a configuration file with the defaults", "").
		WithExample(`  clipkeeper config init
  clipkeeper config init --force`).
		WithExactArgs(0).
		WithFlags(func(cmd *cobra.Command) {
			cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
		}).
		WithRun(func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewWithSuggestion(errors.ExitCodeConfig,
					fmt.Sprintf("Configuration file '%s' already exists", path),
					"Use --force to overwrite it with the defaults.")
			}

			if IsDryRun() {
				PrintDryRunAction(cmd.ErrOrStderr(), "write the default configuration", map[string]string{
					"path": path,
				})
				return nil
			}

			if err := config.Save(config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		}).
		Build()
}
