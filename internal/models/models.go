package models

import "time"

// Preference is the optimization axis a rider picks for a comparison.
type Preference string

const (
	PrefPrice  Preference = "price"
	PrefSpeed  Preference = "speed"
	PrefLuxury Preference = "luxury"
)

func (p Preference) Valid() bool {
	switch p {
	case PrefPrice, PrefSpeed, PrefLuxury:
		return true
	}
	return false
}

// SavingsKind classifies what a recorded saving is denominated in.
type SavingsKind string

const (
	SavingsPrice  SavingsKind = "price"
	SavingsTime   SavingsKind = "time"
	SavingsLuxury SavingsKind = "luxury"
	SavingsNone   SavingsKind = "none"
)

// RideOffer is one catalog entry from a provider. Seeded once, never
// mutated.
type RideOffer struct {
	ID             string  `json:"id"`
	Provider       string  `json:"service"`     // "uber" or "lyft"
	ClassID        string  `json:"rideType"`    // "UberX", "LyftLux", ...
	DisplayName    string  `json:"name"`
	Description    string  `json:"description"`
	BasePrice      float64 `json:"price"`
	BaseEtaMinutes int     `json:"eta"`
	LuxuryTier     int     `json:"luxuryLevel"` // 1-5
	SeatCount      int     `json:"seats"`
	IconRef        string  `json:"icon"`
}

// QuotedOffer is a RideOffer with request-scoped market variation
// applied. Lives only for the duration of one comparison response.
type QuotedOffer struct {
	RideOffer
	AdjustedPrice      float64 `json:"adjustedPrice"`
	AdjustedEtaMinutes int     `json:"adjustedEta"`
	Recommended        bool    `json:"recommended"`
}

// ComparisonRequest is one row of the append-only comparison log.
type ComparisonRequest struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"userId"`
	OriginText         string      `json:"fromLocation"`
	DestinationText    string      `json:"toLocation"`
	Preference         Preference  `json:"preference"`
	RecommendedOfferID string      `json:"recommendedRideId"`
	SavingsAmount      float64     `json:"savingsAmount"`
	SavingsKind        SavingsKind `json:"savingsKind"`
	MinutesSaved       int         `json:"minutesSaved"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// UserProfile carries the running counters bumped after every
// comparison. Counters only ever increase; analytics recomputes the
// same numbers from the log.
type UserProfile struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Phone                  string    `json:"phone"`
	PreferredPaymentMethod string    `json:"preferredPaymentMethod"`
	TotalRideCount         int       `json:"totalRideCount"`
	TotalSpent             float64   `json:"totalSpent"`
	TotalSavings           float64   `json:"totalSavings"`
	TotalMinutesSaved      int       `json:"totalMinutesSaved"`
	MemberSince            time.Time `json:"memberSince"`
}

// Address is one gazetteer candidate for autocomplete.
type Address struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	MainText      string  `json:"mainText"`
	SecondaryText string  `json:"secondaryText"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
}

// ComparisonEvent is published to Kafka after a comparison is recorded
// and consumed by the savings-counter mirror.
type ComparisonEvent struct {
	ComparisonID  string      `json:"comparison_id"`
	UserID        string      `json:"user_id"`
	SavingsAmount float64     `json:"savings_amount"`
	SavingsKind   SavingsKind `json:"savings_kind"`
	MinutesSaved  int         `json:"minutes_saved"`
	CreatedAt     time.Time   `json:"created_at"`
}
