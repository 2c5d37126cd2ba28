package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/ride-compare/internal/market"
	"github.com/example/ride-compare/internal/models"
)

// Period selects a trailing window ending at "now".
type Period string

const (
	PeriodWeek    Period = "1W"
	Period3Months Period = "3M"
	Period6Months Period = "6M"
	PeriodYear    Period = "1Y"
	PeriodAll     Period = "ALL"
)

// ParsePeriod validates a query value. Empty means ALL.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodAll, nil
	case PeriodWeek, Period3Months, Period6Months, PeriodYear, PeriodAll:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// cutoff returns the window start, or the zero time for ALL.
func (p Period) cutoff(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case Period3Months:
		return now.AddDate(0, -3, 0)
	case Period6Months:
		return now.AddDate(0, -6, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

// SeriesPoint is one charting point: the running monetary total after
// the comparison at Date.
type SeriesPoint struct {
	Date       time.Time `json:"date"`
	Cumulative float64   `json:"cumulative"`
}

// Summary aggregates a user's comparison log over a window. Minutes
// are reported beside the money and never folded into it.
type Summary struct {
	TotalSavings      float64       `json:"totalSavings"`
	PriceSavings      float64       `json:"priceSavings"`
	LuxurySavings     float64       `json:"luxurySavings"`
	TotalMinutesSaved int           `json:"totalMinutesSaved"`
	RideCount         int           `json:"rideCount"`
	TimeSeries        []SeriesPoint `json:"timeSeries"`
}

// Summarize recomputes aggregates from log rows. The log is the source
// of truth here; the profile's running counters are only the fast
// path. A user with no rows gets zeroed aggregates, not an error.
func Summarize(rows []models.ComparisonRequest, period Period, now time.Time) Summary {
	cut := period.cutoff(now)

	window := make([]models.ComparisonRequest, 0, len(rows))
	for _, r := range rows {
		if !cut.IsZero() && r.CreatedAt.Before(cut) {
			continue
		}
		window = append(window, r)
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].CreatedAt.Before(window[j].CreatedAt)
	})

	s := Summary{TimeSeries: make([]SeriesPoint, 0, len(window))}
	var running float64
	for _, r := range window {
		s.RideCount++
		s.TotalMinutesSaved += r.MinutesSaved
		switch r.SavingsKind {
		case models.SavingsPrice:
			s.PriceSavings += r.SavingsAmount
			running += r.SavingsAmount
		case models.SavingsLuxury:
			s.LuxurySavings += r.SavingsAmount
			running += r.SavingsAmount
		}
		s.TimeSeries = append(s.TimeSeries, SeriesPoint{Date: r.CreatedAt, Cumulative: market.Round2(running)})
	}
	s.PriceSavings = market.Round2(s.PriceSavings)
	s.LuxurySavings = market.Round2(s.LuxurySavings)
	s.TotalSavings = market.Round2(s.PriceSavings + s.LuxurySavings)
	return s
}
