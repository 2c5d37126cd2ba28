// The consumer mirrors recorded savings into Redis counters so
// dashboards and other services can read running totals without
// touching the primary store. It reads the comparison-events topic the
// API publishes to.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-compare/internal/models"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total comparison events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_updates_total",
		Help: "Total successful redis counter updates",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, redisUpdates, redisErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokers := []string{"localhost:9092"}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = brokers[:0]
		for _, b := range strings.Split(v, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	}
	topic := envOr("KAFKA_TOPIC", "comparison-events")
	group := envOr("KAFKA_GROUP", "ride-compare-consumer")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")

	rc := redis.NewClient(&redis.Options{Addr: redisAddr})
	counters := &redisCounters{c: rc}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		msgsConsumed.Inc()

		var ev models.ComparisonEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.UserID == "" {
			msgsInvalid.Inc()
			log.Printf("invalid message: %v", err)
			continue
		}

		if err := applyWithRetry(ctx, counters, ev, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Printf("redis update failed for user=%s: %v", ev.UserID, err)
			continue
		}
		redisUpdates.Inc()
	}
}

// Counters is the small subset of redis operations we need, split out
// so tests can run against a fake.
type Counters interface {
	IncrByFloat(ctx context.Context, key, field string, v float64) error
	IncrBy(ctx context.Context, key, field string, v int64) error
}

type redisCounters struct{ c *redis.Client }

func (r *redisCounters) IncrByFloat(ctx context.Context, key, field string, v float64) error {
	return r.c.HIncrByFloat(ctx, key, field, v).Err()
}

func (r *redisCounters) IncrBy(ctx context.Context, key, field string, v int64) error {
	return r.c.HIncrBy(ctx, key, field, v).Err()
}

// applyWithRetry bumps the user's mirrored counters with retry and
// exponential backoff. Monetary savings only accumulate for price and
// luxury kinds; time savings are counted in minutes.
//
// A retry after a partial apply can re-increment ride_count, so the
// mirror is at-least-once, not exact; the primary store stays the
// source of truth for counters.
func applyWithRetry(ctx context.Context, c Counters, ev models.ComparisonEvent, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	key := "savings:user:" + ev.UserID
	var err error
	for i := 0; i < attempts; i++ {
		if err = apply(ctx, c, key, ev); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

func apply(ctx context.Context, c Counters, key string, ev models.ComparisonEvent) error {
	if err := c.IncrBy(ctx, key, "ride_count", 1); err != nil {
		return err
	}
	switch ev.SavingsKind {
	case models.SavingsPrice, models.SavingsLuxury:
		if err := c.IncrByFloat(ctx, key, "total_savings", ev.SavingsAmount); err != nil {
			return err
		}
	}
	if ev.MinutesSaved > 0 {
		if err := c.IncrBy(ctx, key, "minutes_saved", int64(ev.MinutesSaved)); err != nil {
			return err
		}
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
