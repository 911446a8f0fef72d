package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/movesion/cardsim/adapters/sqlite"
	"github.com/movesion/cardsim/config"
)

var validateCheckDatabase bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and pricing plan before deployment",
	Long: `Validate the cardsim configuration file and the pricing plan it points to.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Pricing plan JSON parses and is structurally sound
  - Database is writable (optional)

Examples:
  cardsim validate
  cardsim validate --config /etc/cardsim/config.yaml --check-database`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	p, err := config.LoadPlan(cfg.Pricing.PlanPath)
	if err != nil {
		fmt.Printf("  %s Pricing plan valid\n", crossMark)
		return fmt.Errorf("pricing plan error: %w", err)
	}
	fmt.Printf("  %s Pricing plan valid\n", checkMark)

	// Show config summary
	fmt.Printf("  %s Plan: %s (%s)\n", checkMark, p.ID, p.Currency)
	fmt.Printf("  %s Tiered metrics: %d, event fees: %d, optional features: %d\n",
		checkMark, len(p.TieredMonthly), len(p.EventFees), len(p.OptionalFeatures))
	fmt.Printf("  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Printf("  %s Horizon: default %d months, max %d months\n",
		checkMark, cfg.Simulation.DefaultHorizonMonths, cfg.Simulation.MaxHorizonMonths)

	if cfg.Presets.SeedPath != "" {
		seeds, err := config.LoadPresetSeeds(cfg.Presets.SeedPath)
		if err != nil {
			fmt.Printf("  %s Preset seeds valid\n", crossMark)
			return fmt.Errorf("preset seeds error: %w", err)
		}
		fmt.Printf("  %s Preset seeds valid (%d presets)\n", checkMark, len(seeds))
	}

	if validateCheckDatabase {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Printf("  %s Database writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Database writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
