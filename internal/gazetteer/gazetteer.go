package gazetteer

import (
	"sort"
	"strings"
	"sync"

	"github.com/example/ride-compare/internal/models"
)

// MaxResults caps every search; the autocomplete UI shows at most 5.
const MaxResults = 5

// Gazetteer is the minimal interface the address-search handler needs.
type Gazetteer interface {
	Search(q string) []models.Address
	Upsert(a models.Address)
}

// Index is the in-process gazetteer: a fixed address set scanned with
// case-insensitive substring matching.
type Index struct {
	mu   sync.RWMutex
	byID map[string]models.Address
}

func NewIndex() *Index {
	return &Index{byID: make(map[string]models.Address)}
}

// NewSeededIndex builds an index over the built-in address set.
func NewSeededIndex() *Index {
	idx := NewIndex()
	for _, a := range seedAddresses() {
		idx.Upsert(a)
	}
	return idx
}

func (g *Index) Upsert(a models.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byID[a.ID] = a
}

func (g *Index) Search(q string) []models.Address {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.Address, 0, MaxResults)
	for _, a := range g.byID {
		if matches(a, q) {
			out = append(out, a)
		}
	}
	// map iteration order is random; keep responses stable
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

func matches(a models.Address, q string) bool {
	return strings.Contains(strings.ToLower(a.Description), q) ||
		strings.Contains(strings.ToLower(a.MainText), q)
}

func seedAddresses() []models.Address {
	return []models.Address{
		{ID: "addr-1", Description: "123 Market St, San Francisco, CA", MainText: "123 Market St", SecondaryText: "San Francisco, CA", Lat: 37.7938, Lng: -122.3957},
		{ID: "addr-2", Description: "Golden Gate Park, San Francisco, CA", MainText: "Golden Gate Park", SecondaryText: "San Francisco, CA", Lat: 37.7694, Lng: -122.4862},
		{ID: "addr-3", Description: "San Francisco International Airport (SFO)", MainText: "SFO Airport", SecondaryText: "San Francisco, CA", Lat: 37.6213, Lng: -122.3790},
		{ID: "addr-4", Description: "Union Square, San Francisco, CA", MainText: "Union Square", SecondaryText: "San Francisco, CA", Lat: 37.7880, Lng: -122.4075},
		{ID: "addr-5", Description: "Fisherman's Wharf, San Francisco, CA", MainText: "Fisherman's Wharf", SecondaryText: "San Francisco, CA", Lat: 37.8080, Lng: -122.4177},
		{ID: "addr-6", Description: "Oracle Park, 24 Willie Mays Plaza, San Francisco, CA", MainText: "Oracle Park", SecondaryText: "San Francisco, CA", Lat: 37.7786, Lng: -122.3893},
		{ID: "addr-7", Description: "Ferry Building, San Francisco, CA", MainText: "Ferry Building", SecondaryText: "San Francisco, CA", Lat: 37.7955, Lng: -122.3937},
		{ID: "addr-8", Description: "Mission District, San Francisco, CA", MainText: "Mission District", SecondaryText: "San Francisco, CA", Lat: 37.7599, Lng: -122.4148},
	}
}
