package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/ride-compare/internal/models"
)

// PostgresStore is the durable Store backing. Schema and catalog seed
// live in migrations/001_create_schema.sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) DB() *sql.DB { return p.db }

func (p *PostgresStore) ListRides(ctx context.Context) ([]models.RideOffer, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, service, ride_type, name, description, price, eta, luxury_level, seats, icon
		 FROM rides ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RideOffer
	for rows.Next() {
		var r models.RideOffer
		if err := rows.Scan(&r.ID, &r.Provider, &r.ClassID, &r.DisplayName, &r.Description,
			&r.BasePrice, &r.BaseEtaMinutes, &r.LuxuryTier, &r.SeatCount, &r.IconRef); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) GetRide(ctx context.Context, id string) (models.RideOffer, error) {
	var r models.RideOffer
	err := p.db.QueryRowContext(ctx,
		`SELECT id, service, ride_type, name, description, price, eta, luxury_level, seats, icon
		 FROM rides WHERE id = $1`, id).
		Scan(&r.ID, &r.Provider, &r.ClassID, &r.DisplayName, &r.Description,
			&r.BasePrice, &r.BaseEtaMinutes, &r.LuxuryTier, &r.SeatCount, &r.IconRef)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RideOffer{}, ErrNotFound
	}
	return r, err
}

func (p *PostgresStore) RecordComparison(ctx context.Context, req *models.ComparisonRequest) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO comparison_requests
		 (id, user_id, from_location, to_location, preference, recommended_ride_id,
		  savings_amount, savings_kind, minutes_saved, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		req.ID, req.UserID, req.OriginText, req.DestinationText, string(req.Preference),
		req.RecommendedOfferID, req.SavingsAmount, string(req.SavingsKind),
		req.MinutesSaved, req.CreatedAt); err != nil {
		return err
	}

	// counter bump is a single additive statement, so concurrent
	// comparisons cannot lose updates
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_profiles (id, member_since, total_ride_count, total_savings, total_minutes_saved)
		 VALUES ($1, $2, 1, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   total_ride_count    = user_profiles.total_ride_count + 1,
		   total_savings       = user_profiles.total_savings + EXCLUDED.total_savings,
		   total_minutes_saved = user_profiles.total_minutes_saved + EXCLUDED.total_minutes_saved`,
		req.UserID, req.CreatedAt, req.SavingsAmount, req.MinutesSaved); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *PostgresStore) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, member_since) VALUES ($1, $2)
		 ON CONFLICT (id) DO NOTHING`, userID, time.Now()); err != nil {
		return models.UserProfile{}, err
	}

	var pr models.UserProfile
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, preferred_payment_method,
		        total_ride_count, total_spent, total_savings, total_minutes_saved, member_since
		 FROM user_profiles WHERE id = $1`, userID).
		Scan(&pr.ID, &pr.Name, &pr.Email, &pr.Phone, &pr.PreferredPaymentMethod,
			&pr.TotalRideCount, &pr.TotalSpent, &pr.TotalSavings, &pr.TotalMinutesSaved, &pr.MemberSince)
	return pr, err
}

func (p *PostgresStore) SetPaymentMethod(ctx context.Context, userID, method string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, member_since, preferred_payment_method)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET preferred_payment_method = EXCLUDED.preferred_payment_method`,
		userID, time.Now(), method)
	return err
}

func (p *PostgresStore) ListComparisons(ctx context.Context, userID string, limit int) ([]models.ComparisonRequest, error) {
	q := `SELECT id, user_id, from_location, to_location, preference, recommended_ride_id,
	             savings_amount, savings_kind, minutes_saved, created_at
	      FROM comparison_requests WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ComparisonRequest
	for rows.Next() {
		var r models.ComparisonRequest
		var pref, kind string
		if err := rows.Scan(&r.ID, &r.UserID, &r.OriginText, &r.DestinationText, &pref,
			&r.RecommendedOfferID, &r.SavingsAmount, &kind, &r.MinutesSaved, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Preference = models.Preference(pref)
		r.SavingsKind = models.SavingsKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}
