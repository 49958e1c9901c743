package cmd

import (
	"fmt"

	"clipkeeper/pkg/errors"
	"clipkeeper/pkg/history"

	"github.com/spf13/cobra"
)

type CommandBuilder struct {
	cmd *cobra.Command
}

func NewCommand(name, short, long string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &cobra.Command{
			Use:     name,
			Short:   short,
			Long:    long,
			Example: "",
		},
	}
}

func (b *CommandBuilder) WithExample(example string) *CommandBuilder {
	b.cmd.Example = example
	return b
}

func (b *CommandBuilder) WithAliases(aliases ...string) *CommandBuilder {
	b.cmd.Aliases = aliases
	return b
}

func (b *CommandBuilder) WithRun(fn func(cmd *cobra.Command, args []string) error) *CommandBuilder {
	b.cmd.RunE = fn
	return b
}

// WithHistory opens the configured history database around fn.
func (b *CommandBuilder) WithHistory(fn func(cmd *cobra.Command, args []string, hm *history.Manager) error) *CommandBuilder {
	b.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		hm, err := history.NewManagerFromConfig(appConfig)
		if err != nil {
			return errors.HistoryError("Failed to open history database", err)
		}
		defer hm.Close()
		return fn(cmd, args, hm)
	}
	return b
}

func (b *CommandBuilder) WithMaxArgs(maxArgs int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) > maxArgs {
			return errors.ValidationError(fmt.Sprintf("accepts at most %d argument(s), received %d", maxArgs, len(args)))
		}
		return nil
	}
	return b
}

func (b *CommandBuilder) WithExactArgs(n int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.ValidationError(fmt.Sprintf("requires exactly %d argument(s), received %d", n, len(args)))
		}
		return nil
	}
	return b
}

// WithFlags lets the caller register flags on the command being built.
func (b *CommandBuilder) WithFlags(fn func(cmd *cobra.Command)) *CommandBuilder {
	fn(b.cmd)
	return b
}

func (b *CommandBuilder) Build() *cobra.Command {
	return b.cmd
}
