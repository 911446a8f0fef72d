package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/movesion/cardsim/domain/scenario"
	"github.com/movesion/cardsim/ports"
)

// PresetService manages saved scenarios.
type PresetService struct {
	store  ports.PresetStore
	clock  ports.Clock
	logger zerolog.Logger
}

// NewPresetService creates a new preset service.
func NewPresetService(store ports.PresetStore, clock ports.Clock, logger zerolog.Logger) *PresetService {
	return &PresetService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// List returns all presets.
func (s *PresetService) List(ctx context.Context) ([]ports.Preset, error) {
	return s.store.List(ctx)
}

// Get retrieves a preset by name.
func (s *PresetService) Get(ctx context.Context, name string) (ports.Preset, error) {
	return s.store.Get(ctx, name)
}

// Save stores or replaces a preset.
func (s *PresetService) Save(ctx context.Context, name, description string, sc scenario.Scenario) (ports.Preset, error) {
	if name == "" {
		return ports.Preset{}, fmt.Errorf("preset name is required")
	}

	p := ports.Preset{
		Name:        name,
		Description: description,
		Scenario:    sc,
		UpdatedAt:   s.clock.Now(),
	}
	if err := s.store.Put(ctx, p); err != nil {
		return ports.Preset{}, err
	}

	s.logger.Info().Str("preset", name).Msg("preset saved")

	// Re-read so callers see store-assigned timestamps.
	return s.store.Get(ctx, name)
}

// Delete removes a preset by name.
func (s *PresetService) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info().Str("preset", name).Msg("preset deleted")
	return nil
}

// Seed is a preset to load into the store on startup.
type Seed struct {
	Name        string
	Description string
	Scenario    scenario.Scenario
}

// SeedMissing inserts seeds that are not yet in the store. Existing presets
// with the same name are left untouched so user edits survive restarts.
func (s *PresetService) SeedMissing(ctx context.Context, seeds []Seed) (int, error) {
	added := 0
	for _, seed := range seeds {
		_, err := s.store.Get(ctx, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return added, fmt.Errorf("check preset %q: %w", seed.Name, err)
		}

		p := ports.Preset{
			Name:        seed.Name,
			Description: seed.Description,
			Scenario:    seed.Scenario,
		}
		if err := s.store.Put(ctx, p); err != nil {
			return added, fmt.Errorf("seed preset %q: %w", seed.Name, err)
		}
		added++
	}

	if added > 0 {
		s.logger.Info().Int("count", added).Msg("presets seeded")
	}
	return added, nil
}
