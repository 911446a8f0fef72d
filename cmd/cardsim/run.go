package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/movesion/cardsim/config"
	"github.com/movesion/cardsim/domain/scenario"
	"github.com/movesion/cardsim/domain/simulation"
)

var (
	runPlanPath string
	runCompact  bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.json>",
	Short: "Run one scenario and print the result as JSON",
	Long: `Run a single simulation from the command line.

The scenario file uses the same JSON shape as the /api/v1/simulation/run
endpoint body's "scenario" field. The pricing plan comes from --plan, or
from the configuration file when --plan is omitted.

Examples:
  cardsim run scenario.json
  cardsim run scenario.json --plan pricing.json
  cardsim run scenario.json --compact | jq .kpis`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runPlanPath, "plan", "", "pricing plan JSON file (default: from config)")
	runCmd.Flags().BoolVar(&runCompact, "compact", false, "print compact JSON instead of indented")
}

func runRun(cmd *cobra.Command, args []string) error {
	planPath := runPlanPath
	if planPath == "" {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("no --plan given and %w", err)
		}
		planPath = cfg.Pricing.PlanPath
	}

	p, err := config.LoadPlan(planPath)
	if err != nil {
		return fmt.Errorf("load pricing plan: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario.Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("parse scenario: %w", err)
	}

	result, err := simulation.New(p).Simulate(sc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if !runCompact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
