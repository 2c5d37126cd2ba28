package savings

import (
	"github.com/example/ride-compare/internal/market"
	"github.com/example/ride-compare/internal/models"
)

// Result is what the recommended offer saves the rider over the
// runner-up: money for price/luxury comparisons, minutes for speed.
type Result struct {
	Amount  float64
	Kind    models.SavingsKind
	Minutes int
}

// Compute derives savings from a display-sorted quote list (see
// ranking.SortForDisplay): best and runner-up are positions 0 and 1.
// With fewer than two offers there is nothing to compare against.
// Deltas are clamped at zero; under a luxury preference the runner-up
// can be a cheaper non-luxury offer, which counts as zero savings
// rather than a negative one.
func Compute(sorted []models.QuotedOffer, pref models.Preference) Result {
	if len(sorted) < 2 {
		return Result{Kind: models.SavingsNone}
	}
	best, runnerUp := sorted[0], sorted[1]

	if pref == models.PrefSpeed {
		minutes := runnerUp.AdjustedEtaMinutes - best.AdjustedEtaMinutes
		if minutes < 0 {
			minutes = 0
		}
		return Result{Kind: models.SavingsTime, Minutes: minutes}
	}

	amount := market.Round2(runnerUp.AdjustedPrice - best.AdjustedPrice)
	if amount < 0 {
		amount = 0
	}
	kind := models.SavingsPrice
	if pref == models.PrefLuxury {
		kind = models.SavingsLuxury
	}
	return Result{Amount: amount, Kind: kind}
}
