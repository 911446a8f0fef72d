package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/movesion/cardsim/domain/plan"
	"github.com/movesion/cardsim/domain/scenario"
)

// LoadPlan reads and validates a pricing plan from a JSON document.
func LoadPlan(path string) (plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("read pricing plan: %w", err)
	}

	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return plan.Plan{}, fmt.Errorf("parse pricing plan: %w", err)
	}
	if p.ID == "" {
		p.ID = "unknown"
	}

	if err := p.Validate(); err != nil {
		return plan.Plan{}, fmt.Errorf("validate pricing plan: %w", err)
	}

	return p, nil
}

// PresetSeed is one entry of a preset seed file.
type PresetSeed struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Scenario    scenario.Scenario `json:"scenario"`
}

// LoadPresetSeeds reads scenario presets from a JSON document. Entries
// without a name fall back to the scenario's own name.
func LoadPresetSeeds(path string) ([]PresetSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var file struct {
		Presets []PresetSeed `json:"presets"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	for i := range file.Presets {
		if file.Presets[i].Name == "" {
			file.Presets[i].Name = file.Presets[i].Scenario.Name
		}
		if file.Presets[i].Name == "" {
			return nil, fmt.Errorf("presets[%d]: name is required", i)
		}
	}

	return file.Presets, nil
}
