package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okaravasi/sonic-mgmt/pkg/cli"
	"github.com/okaravasi/sonic-mgmt/pkg/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persistent settings",
		Long: `Manage persistent settings stored in ~/.saiqual/settings.json.

Settings provide defaults for flags:
  - testbed:     Used when --testbed is not specified
  - scripts_dir: Local directory with the DUT helper scripts
  - container:   Default test container (saiserver or syncd)

Examples:
  saiqual settings show
  saiqual settings set testbed ~/testbeds/msn2700.yaml
  saiqual settings clear`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := settings.Load()
				if err != nil {
					return fmt.Errorf("loading settings: %w", err)
				}
				fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

				t := cli.NewTable("SETTING", "VALUE")
				row := func(name, value string) {
					if value == "" {
						value = "(not set)"
					}
					t.Row(name, value)
				}
				row("testbed", s.Testbed)
				row("scripts_dir", s.ScriptsDir)
				row("container", s.Container)
				t.Flush()
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <setting> <value>",
			Short: "Set a setting value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := settings.Load()
				if err != nil {
					s = &settings.Settings{}
				}
				if !s.Set(args[0], args[1]) {
					return fmt.Errorf("unknown setting: %s (valid: testbed, scripts_dir, container)", args[0])
				}
				if err := s.Save(); err != nil {
					return fmt.Errorf("saving settings: %w", err)
				}
				fmt.Printf("%s set to: %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Reset all settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s := &settings.Settings{}
				if err := s.Save(); err != nil {
					return fmt.Errorf("saving settings: %w", err)
				}
				fmt.Println("Settings cleared")
				return nil
			},
		},
	)
	return cmd
}
