package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const BootstrapName = "pricing"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           BootstrapName,
		Short:         "Derivatives pricing service",
		Long:          "Prices options, option strategies, bonds and structured products over HTTP, gRPC or from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/pricing.toml", "path to the TOML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newPriceCmd(&configPath))
	return root
}
