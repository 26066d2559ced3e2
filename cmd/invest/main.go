package main

import (
	"fmt"
	"os"

	"invest-client/src/config"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	sandboxMode bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "invest",
	Short:         "Streams market data from the broker API into in-memory caches",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&sandboxMode, "sandbox", false, "run against the in-process sandbox server")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(instrumentsCmd)
}

// -----------------------------------------------------------------------------

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.NewConfig(configPath, func(c *config.Config) {
		if sandboxMode {
			c.Sandbox.Enabled = true
		}
	})
}
