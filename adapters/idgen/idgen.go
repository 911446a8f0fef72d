// Package idgen provides simulation run identifier generation.
package idgen

import (
	"github.com/google/uuid"

	"github.com/movesion/cardsim/ports"
)

// RunID generates unique run identifiers of the form "run_<uuid>".
type RunID struct{}

// New generates a new run identifier.
func (RunID) New() string {
	return "run_" + uuid.NewString()
}

var _ ports.IDGenerator = RunID{}
