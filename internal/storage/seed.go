package storage

import "github.com/example/ride-compare/internal/models"

// SeedCatalog is the static offering set for the two mock providers.
// MemoryStore seeds it directly; migrations/001 inserts the same rows.
func SeedCatalog() []models.RideOffer {
	return []models.RideOffer{
		{
			ID:             "uber-x",
			Provider:       "uber",
			ClassID:        "UberX",
			DisplayName:    "UberX",
			Description:    "Affordable, everyday rides",
			BasePrice:      12.50,
			BaseEtaMinutes: 3,
			LuxuryTier:     1,
			SeatCount:      4,
			IconRef:        "🚗",
		},
		{
			ID:             "uber-xl",
			Provider:       "uber",
			ClassID:        "UberXL",
			DisplayName:    "UberXL",
			Description:    "Larger vehicles for groups",
			BasePrice:      18.75,
			BaseEtaMinutes: 5,
			LuxuryTier:     2,
			SeatCount:      6,
			IconRef:        "🚐",
		},
		{
			ID:             "uber-black",
			Provider:       "uber",
			ClassID:        "UberBlack",
			DisplayName:    "Uber Black",
			Description:    "Premium rides in luxury cars",
			BasePrice:      32.00,
			BaseEtaMinutes: 4,
			LuxuryTier:     5,
			SeatCount:      4,
			IconRef:        "🖤",
		},
		{
			ID:             "lyft",
			Provider:       "lyft",
			ClassID:        "Lyft",
			DisplayName:    "Lyft",
			Description:    "Affordable, reliable rides",
			BasePrice:      13.25,
			BaseEtaMinutes: 2,
			LuxuryTier:     1,
			SeatCount:      4,
			IconRef:        "🚗",
		},
		{
			ID:             "lyft-xl",
			Provider:       "lyft",
			ClassID:        "LyftXL",
			DisplayName:    "Lyft XL",
			Description:    "Extra room for your group",
			BasePrice:      19.50,
			BaseEtaMinutes: 6,
			LuxuryTier:     2,
			SeatCount:      6,
			IconRef:        "🚐",
		},
		{
			ID:             "lyft-lux",
			Provider:       "lyft",
			ClassID:        "LyftLux",
			DisplayName:    "Lyft Lux",
			Description:    "High-end cars with top drivers",
			BasePrice:      28.75,
			BaseEtaMinutes: 7,
			LuxuryTier:     5,
			SeatCount:      4,
			IconRef:        "💎",
		},
	}
}
