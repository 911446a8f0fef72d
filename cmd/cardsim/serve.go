package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/movesion/cardsim/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulator HTTP server",
	Long: `Start the cardsim HTTP API server.

The server will:
  - Load configuration from cardsim.yaml (or --config)
  - Or load configuration from CARDSIM_* environment variables
  - Load the pricing plan and watch it for changes
  - Open the preset database and seed missing presets
  - Serve the simulation and pricing API under /api/v1

Environment variables (for Docker deployments):
  CARDSIM_PRICING_PLAN_PATH - Pricing plan JSON file (required)
  CARDSIM_DATABASE_DSN      - Preset database path (default: cardsim.db)
  CARDSIM_SERVER_PORT       - Server port (default: 8080)
  CARDSIM_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  cardsim serve
  cardsim serve --config /etc/cardsim/config.yaml

  # Docker (env vars only):
  CARDSIM_PRICING_PLAN_PATH=/data/pricing.json cardsim serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err != nil && os.Getenv("CARDSIM_PRICING_PLAN_PATH") == "" {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s (see config example in the repository)\n", cfgFile)
		fmt.Println("Option 2: Set CARDSIM_PRICING_PLAN_PATH environment variable")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  CARDSIM_PRICING_PLAN_PATH=/data/pricing.json cardsim serve")
		return nil
	}

	app, err := bootstrap.New(cfgFile)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
