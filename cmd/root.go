package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/railops/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "railops",
	Short: "Rail operations and maintenance planner",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}
