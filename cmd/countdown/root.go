package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose    bool
	configPath string
	logFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	run := &runOptions{}

	cmd := &cobra.Command{
		Use:           "countdown",
		Short:         "Countdown renders a themed countdown to a moment in time",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without a subcommand, run the countdown with the persistent flags.
			if len(args) == 0 {
				return runCmdRunner(cmd, flags, run)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML or TOML config file")
	cmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Write logs to this file while the interface is running")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newThemesCmd())
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
