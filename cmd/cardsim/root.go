package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cardsim",
	Short: "Card program financial simulator",
	Long: `Cardsim projects the monthly economics of a card-issuing program.

It combines a pricing plan (issuer fees, tiered card pricing, event fees)
with a scenario (adoption, usage, and commercial assumptions) and produces
month-by-month revenue, cost, and profit rows with derived KPIs.

Quick start:
  cardsim serve               # Start the HTTP API server
  cardsim run scenario.json   # Run one scenario from the command line

Management:
  cardsim template            # Print a starter scenario
  cardsim validate            # Validate configuration and pricing plan`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "cardsim.yaml", "config file path")
}
