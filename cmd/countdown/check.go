package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/countdown/internal/config"
	"github.com/alexisbeaulieu97/countdown/internal/themes"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags)
		},
	}
}

func runCheck(cmd *cobra.Command, flags *rootFlags) error {
	if err := validateConfigPath(flags.configPath); err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "  mode:     %s\n", cfg.Mode)
	if cfg.Target != "" {
		fmt.Fprintf(out, "  target:   %s\n", cfg.Target)
	} else {
		fmt.Fprintf(out, "  duration: %s\n", cfg.Duration)
	}
	fmt.Fprintf(out, "  timezone: %s\n", cfg.Timezone)

	registry := themes.Global()
	if resolved := registry.Resolve(cfg.Theme); resolved != cfg.Theme {
		fmt.Fprintf(out, "  theme:    %s (unknown, falls back to %s)\n", cfg.Theme, resolved)
	} else {
		fmt.Fprintf(out, "  theme:    %s\n", cfg.Theme)
	}

	return nil
}
