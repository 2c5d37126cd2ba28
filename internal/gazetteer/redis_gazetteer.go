package gazetteer

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-compare/internal/models"
)

// RedisGazetteer implements Gazetteer on a Redis hash so every server
// instance sees the same address set. Entries are JSON values keyed by
// address id; matching happens in process after HGETALL, the set being
// small by design.
type RedisGazetteer struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisGazetteer(addr, password, key string) *RedisGazetteer {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisGazetteer{client: c, key: key, ctx: context.Background()}
}

// SeedIfEmpty loads the built-in address set on first run.
func (r *RedisGazetteer) SeedIfEmpty() error {
	n, err := r.client.HLen(r.ctx, r.key).Result()
	if err != nil || n > 0 {
		return err
	}
	for _, a := range seedAddresses() {
		r.Upsert(a)
	}
	return nil
}

func (r *RedisGazetteer) Upsert(a models.Address) {
	b, _ := json.Marshal(a)
	_ = r.client.HSet(r.ctx, r.key, a.ID, string(b)).Err()
}

func (r *RedisGazetteer) Search(q string) []models.Address {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	all, err := r.client.HGetAll(r.ctx, r.key).Result()
	if err != nil {
		return nil
	}
	out := make([]models.Address, 0, MaxResults)
	for _, v := range all {
		var a models.Address
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			continue
		}
		if matches(a, q) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}
