package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docsmith/docsmith/internal/config"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit configuration",
	}

	cmd.AddCommand(newConfigEffectiveCmd(flags))
	cmd.AddCommand(newConfigGetCmd(flags))
	cmd.AddCommand(newConfigSetCmd(flags))
	cmd.AddCommand(newConfigValidateCmd(flags))

	return cmd
}

func newConfigEffectiveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "effective",
		Short: "Print the fully merged effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out, err := cfg.EffectiveYAML()
			if err != nil {
				return err
			}
			cmd.Print(string(out))
			return nil
		},
	}
}

func newConfigGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of one dotted config key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			cmd.Println(v)
			return nil
		},
	}
}

func newConfigSetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one dotted config key in the project-local config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetKey(flags.projectConfig, args[0], args[1]); err != nil {
				return err
			}
			cmd.Printf("%s = %s (written to %s)\n", args[0], args[1], flags.projectConfig)
			return nil
		},
	}
}

func newConfigValidateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check configuration syntax without applying it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := config.ValidateFile(args[0]); err != nil {
					return err
				}
				cmd.Printf("%s: OK\n", args[0])
				return nil
			}
			// No path: validate every layer that exists, then the merge.
			for _, p := range []string{userPath(flags), flags.projectConfig} {
				if p == "" {
					continue
				}
				if _, err := os.Stat(p); err != nil {
					continue
				}
				if err := config.ValidateFile(p); err != nil {
					return err
				}
				cmd.Printf("%s: OK\n", p)
			}
			if _, err := loadConfig(flags); err != nil {
				return fmt.Errorf("merge: %w", err)
			}
			cmd.Println("effective config: OK")
			return nil
		},
	}
}

func userPath(flags *rootFlags) string {
	if flags.userConfig != "" {
		return flags.userConfig
	}
	return config.DefaultUserPath()
}
