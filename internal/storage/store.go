package storage

import (
	"context"
	"errors"
	"time"

	"github.com/example/ride-compare/internal/models"
)

// ErrNotFound is returned for lookups of unknown catalog ids.
var ErrNotFound = errors.New("ride not found")

// Store defines persistence for the catalog, the comparison log, and
// user profiles. Two backings exist: MemoryStore and PostgresStore,
// selected at startup.
type Store interface {
	// ListRides returns the catalog in seed order, untouched by
	// market variation.
	ListRides(ctx context.Context) ([]models.RideOffer, error)
	GetRide(ctx context.Context, id string) (models.RideOffer, error)

	// RecordComparison appends to the log and additively bumps the
	// user's counters (+1 ride, +savings, +minutes) in one serialized
	// step so concurrent comparisons never lose updates.
	RecordComparison(ctx context.Context, req *models.ComparisonRequest) error

	// GetProfile returns the user's profile, creating a blank one on
	// first touch.
	GetProfile(ctx context.Context, userID string) (models.UserProfile, error)
	SetPaymentMethod(ctx context.Context, userID, method string) error

	// ListComparisons returns the user's log most-recent-first.
	// limit <= 0 means no cap.
	ListComparisons(ctx context.Context, userID string, limit int) ([]models.ComparisonRequest, error)
}

func newProfile(userID string, now time.Time) models.UserProfile {
	return models.UserProfile{ID: userID, MemberSince: now}
}
