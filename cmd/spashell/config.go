package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configWrite string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings as YAML",
	Long: `Prints the settings after the config file and SPASHELL_* variables are
applied. With --write the same YAML is saved to a file, which makes a
starting point for a site's spashell.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configWrite != "" {
			if err := cfg.Save(configWrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", configWrite)
			return nil
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configCmd.Flags().StringVar(&configWrite, "write", "", "save the settings to this file instead of printing them")
}
