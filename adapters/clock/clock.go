// Package clock provides the wall-clock implementation of ports.Clock.
package clock

import (
	"time"

	"github.com/movesion/cardsim/ports"
)

// Real returns the actual current time.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

var _ ports.Clock = Real{}
