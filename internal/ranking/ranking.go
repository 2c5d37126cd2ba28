package ranking

import (
	"errors"
	"sort"

	"github.com/example/ride-compare/internal/models"
)

// ErrEmptyCatalog is returned when ranking is asked to recommend from
// zero offers. Reaching it means the catalog seed failed.
var ErrEmptyCatalog = errors.New("empty ride catalog")

// Offers with LuxuryTier at or above this count as luxury-eligible.
const luxuryTierMin = 4

// SelectRecommended picks the single best offer for the preference.
// Ties go to the first offer in catalog order.
func SelectRecommended(quotes []models.QuotedOffer, pref models.Preference) (models.QuotedOffer, error) {
	if len(quotes) == 0 {
		return models.QuotedOffer{}, ErrEmptyCatalog
	}
	switch pref {
	case models.PrefSpeed:
		return minBy(quotes, func(a, b models.QuotedOffer) bool {
			return a.AdjustedEtaMinutes < b.AdjustedEtaMinutes
		}), nil
	case models.PrefLuxury:
		eligible := make([]models.QuotedOffer, 0, len(quotes))
		for _, q := range quotes {
			if q.LuxuryTier >= luxuryTierMin {
				eligible = append(eligible, q)
			}
		}
		if len(eligible) > 0 {
			return minBy(eligible, func(a, b models.QuotedOffer) bool {
				return a.AdjustedPrice < b.AdjustedPrice
			}), nil
		}
		// fallback so a recommendation always exists
		return minBy(quotes, func(a, b models.QuotedOffer) bool {
			return a.LuxuryTier > b.LuxuryTier
		}), nil
	default:
		return minBy(quotes, func(a, b models.QuotedOffer) bool {
			return a.AdjustedPrice < b.AdjustedPrice
		}), nil
	}
}

// SortForDisplay orders quotes for the client: the recommended offer
// first, the rest by the preference criterion. Stable, so equal offers
// keep catalog order.
func SortForDisplay(quotes []models.QuotedOffer, pref models.Preference, recommendedID string) []models.QuotedOffer {
	out := make([]models.QuotedOffer, len(quotes))
	copy(out, quotes)
	for i := range out {
		out[i].Recommended = out[i].ID == recommendedID
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Recommended != out[j].Recommended {
			return out[i].Recommended
		}
		return displayLess(out[i], out[j], pref)
	})
	return out
}

func displayLess(a, b models.QuotedOffer, pref models.Preference) bool {
	switch pref {
	case models.PrefSpeed:
		return a.AdjustedEtaMinutes < b.AdjustedEtaMinutes
	case models.PrefLuxury:
		ae, be := a.LuxuryTier >= luxuryTierMin, b.LuxuryTier >= luxuryTierMin
		if ae != be {
			return ae
		}
		if ae {
			return a.AdjustedPrice < b.AdjustedPrice
		}
		return a.LuxuryTier > b.LuxuryTier
	default:
		return a.AdjustedPrice < b.AdjustedPrice
	}
}

func minBy(quotes []models.QuotedOffer, less func(a, b models.QuotedOffer) bool) models.QuotedOffer {
	best := quotes[0]
	for _, q := range quotes[1:] {
		if less(q, best) {
			best = q
		}
	}
	return best
}
