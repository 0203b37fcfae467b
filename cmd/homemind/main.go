package main

import (
	"fmt"
	"os"

	"github.com/boddenberg/home-mind-bridge/internal/config"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "homemind",
		Short: "Bridge between a home-automation host and the Home Mind API",
		Long: `homemind forwards conversation input to a Home Mind API server and
returns its reply as speech. It validates connectivity when an entry is
set up and keeps one custom prompt option per entry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(
		newServeCmd(flags),
		newValidateCmd(flags),
		newAskCmd(flags),
	)
	return root
}

func (f *rootFlags) load() (*config.Config, error) {
	return config.Load(f.configFile, f.envFile)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
