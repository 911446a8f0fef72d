package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/movesion/cardsim/adapters/clock"
	"github.com/movesion/cardsim/adapters/idgen"
	"github.com/movesion/cardsim/app"
	"github.com/movesion/cardsim/config"
	"github.com/movesion/cardsim/domain/plan"
)

var templatePlanPath string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print a starter scenario for the current pricing plan",
	Long: `Print a runnable scenario with every optional feature and event fee
of the pricing plan listed with its default toggle state.

Examples:
  cardsim template > scenario.json
  cardsim template --plan pricing.json`,
	RunE: runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVar(&templatePlanPath, "plan", "", "pricing plan JSON file (default: from config)")
}

type staticPlanProvider struct{ p plan.Plan }

func (s staticPlanProvider) Plan() plan.Plan { return s.p }

func runTemplate(cmd *cobra.Command, args []string) error {
	planPath := templatePlanPath
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

	svc := app.NewSimulatorService(staticPlanProvider{p: p}, clock.Real{}, idgen.RunID{}, zerolog.Nop(), 0)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(svc.Template())
}
