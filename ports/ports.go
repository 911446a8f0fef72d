// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and config/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/movesion/cardsim/domain/plan"
	"github.com/movesion/cardsim/domain/scenario"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Plan Ports
// -----------------------------------------------------------------------------

// PlanProvider supplies the current pricing plan. Implementations may reload
// the plan behind the caller's back; the returned value is always a complete,
// validated snapshot.
type PlanProvider interface {
	Plan() plan.Plan
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// Preset is a named, saved scenario.
type Preset struct {
	Name        string
	Description string
	Scenario    scenario.Scenario
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PresetStore persists scenario presets, keyed by name.
type PresetStore interface {
	// List returns all presets ordered by name.
	List(ctx context.Context) ([]Preset, error)

	// Get retrieves a preset by name. Returns ErrNotFound when absent.
	Get(ctx context.Context, name string) (Preset, error)

	// Put stores a new preset or replaces an existing one.
	Put(ctx context.Context, p Preset) error

	// Delete removes a preset. Returns ErrNotFound when absent.
	Delete(ctx context.Context, name string) error
}
