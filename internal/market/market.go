package market

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/example/ride-compare/internal/models"
)

// Variation bounds simulating demand and traffic. Prices move +/- 20%,
// ETAs shift up to 3 minutes either way and never drop below 1.
const (
	priceLow   = 0.8
	priceHigh  = 1.2
	etaSpread  = 3
	etaFloorMn = 1
)

// Source yields the randomness the engine draws from. Injected so
// tests can fix a seed instead of relying on wall-clock entropy.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Engine perturbs catalog offers per request. Safe for concurrent use;
// the underlying rand source is guarded by a mutex.
type Engine struct {
	mu  sync.Mutex
	src Source
}

// New builds an engine backed by a time-seeded rand source.
func New() *Engine {
	return NewWithSource(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithSource builds an engine on the provided source.
func NewWithSource(src Source) *Engine {
	return &Engine{src: src}
}

// Quote applies fresh market variation to every offer. Pure aside from
// the rand draws: the input catalog is never modified and nothing is
// cached between calls.
func (e *Engine) Quote(offers []models.RideOffer) []models.QuotedOffer {
	out := make([]models.QuotedOffer, 0, len(offers))
	for _, o := range offers {
		mult, delta := e.draw()
		eta := o.BaseEtaMinutes + delta
		if eta < etaFloorMn {
			eta = etaFloorMn
		}
		out = append(out, models.QuotedOffer{
			RideOffer:          o,
			AdjustedPrice:      Round2(o.BasePrice * mult),
			AdjustedEtaMinutes: eta,
		})
	}
	return out
}

func (e *Engine) draw() (mult float64, etaDelta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mult = priceLow + e.src.Float64()*(priceHigh-priceLow)
	etaDelta = e.src.Intn(2*etaSpread+1) - etaSpread
	return mult, etaDelta
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
