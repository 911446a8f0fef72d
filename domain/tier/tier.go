// Package tier provides pure functions for tiered pricing calculations.
// All functions are deterministic with no side effects.
package tier

import "errors"

var (
	// ErrNegativeVolume is returned when a negative volume is priced.
	ErrNegativeVolume = errors.New("volume must be >= 0")
	// ErrEmptyTiers is returned when a tier schedule has no tiers.
	ErrEmptyTiers = errors.New("tier schedule cannot be empty")
)

// Tier is a single band in a tiered pricing schedule (value type).
// UpTo is the inclusive upper bound; nil means unbounded. Schedules are
// ordered by ascending bound with the unbounded tier last.
type Tier struct {
	UpTo  *float64 `json:"up_to"`
	Price float64  `json:"price"`
}

// ApplyTiers prices a volume under the step model: the first tier whose
// bound contains the volume prices the entire volume. This matches offer
// tables that quote one unit price per volume bracket, e.g.
//
//	0-7500 cards:      0.95/card
//	7501-15000 cards:  0.85/card
//	15001+ cards:      0.75/card
//
// A volume of 0 costs 0 without consulting the schedule.
func ApplyTiers(volume float64, tiers []Tier) (float64, error) {
	if volume < 0 {
		return 0, ErrNegativeVolume
	}
	if len(tiers) == 0 {
		return 0, ErrEmptyTiers
	}
	if volume == 0 {
		return 0, nil
	}

	for _, t := range tiers {
		if t.UpTo == nil || volume <= *t.UpTo {
			return volume * t.Price, nil
		}
	}

	// Unreachable when the last tier is unbounded. Kept as a defensive
	// default for malformed schedules.
	return volume * tiers[len(tiers)-1].Price, nil
}

// ApplyGraduatedTiers prices a volume under the graduated model: each band's
// portion of the volume is charged at that band's price, marginal-bracket
// style. With tiers [0-100: 1.00, 101-500: 0.80, 501+: 0.60] a volume of 600
// costs 100*1.00 + 400*0.80 + 100*0.60 = 480.
//
// Not used by the default pricing plan; provided for schedules that bill
// marginally.
func ApplyGraduatedTiers(volume float64, tiers []Tier) (float64, error) {
	if volume < 0 {
		return 0, ErrNegativeVolume
	}
	if len(tiers) == 0 {
		return 0, ErrEmptyTiers
	}
	if volume == 0 {
		return 0, nil
	}

	var total float64
	remaining := volume
	previousUpTo := 0.0

	for _, t := range tiers {
		if t.UpTo == nil {
			total += remaining * t.Price
			break
		}

		band := min(remaining, *t.UpTo-previousUpTo)
		if band > 0 {
			total += band * t.Price
			remaining -= band
		}
		previousUpTo = *t.UpTo

		if remaining <= 0 {
			break
		}
	}

	return total, nil
}

// EffectiveRate returns the per-unit price that would apply to one more unit
// at the given volume under the step model. A volume <= 0 yields the first
// tier's price.
func EffectiveRate(volume float64, tiers []Tier) float64 {
	if len(tiers) == 0 {
		return 0
	}
	if volume <= 0 {
		return tiers[0].Price
	}

	for _, t := range tiers {
		if t.UpTo == nil || volume <= *t.UpTo {
			return t.Price
		}
	}
	return tiers[len(tiers)-1].Price
}

// FindTierIndex returns the zero-based index of the step tier a volume falls
// into, or the last index for volumes beyond every bounded tier.
func FindTierIndex(volume float64, tiers []Tier) int {
	for i, t := range tiers {
		if t.UpTo == nil || volume <= *t.UpTo {
			return i
		}
	}
	return len(tiers) - 1
}
