package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ride-compare/internal/models"
)

// fakeCounters implements Counters for tests
type fakeCounters struct {
	failInt  int // number of IncrBy calls to fail before succeeding
	intCalls int
	floats   map[string]float64
	ints     map[string]int64
}

func newFakeCounters(failInt int) *fakeCounters {
	return &fakeCounters{failInt: failInt, floats: map[string]float64{}, ints: map[string]int64{}}
}

func (f *fakeCounters) IncrByFloat(ctx context.Context, key, field string, v float64) error {
	f.floats[field] += v
	return nil
}

func (f *fakeCounters) IncrBy(ctx context.Context, key, field string, v int64) error {
	f.intCalls++
	if f.intCalls <= f.failInt {
		return errors.New("incr fail")
	}
	f.ints[field] += v
	return nil
}

func TestApplyWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := newFakeCounters(1)
	ev := models.ComparisonEvent{UserID: "u1", SavingsAmount: 2.50, SavingsKind: models.SavingsPrice}
	start := time.Now()
	if err := applyWithRetry(context.Background(), f, ev, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.ints["ride_count"] != 1 || f.floats["total_savings"] != 2.50 {
		t.Fatalf("counters wrong: %+v %+v", f.ints, f.floats)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("expected at least one backoff")
	}
}

func TestApplyWithRetry_FailsWhenExhausted(t *testing.T) {
	f := newFakeCounters(10)
	ev := models.ComparisonEvent{UserID: "u1", SavingsKind: models.SavingsNone}
	if err := applyWithRetry(context.Background(), f, ev, 3, 5*time.Millisecond); err == nil {
		t.Fatal("expected error after retries")
	}
}

func TestApplyWithRetry_ZeroAttemptsStillApplies(t *testing.T) {
	f := newFakeCounters(0)
	ev := models.ComparisonEvent{UserID: "u1", SavingsKind: models.SavingsPrice, SavingsAmount: 1.25}
	if err := applyWithRetry(context.Background(), f, ev, 0, time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.ints["ride_count"] != 1 || f.floats["total_savings"] != 1.25 {
		t.Fatalf("counters wrong: %+v %+v", f.ints, f.floats)
	}
}

func TestApplyWithRetry_ZeroAttemptsReportsFailure(t *testing.T) {
	f := newFakeCounters(10)
	ev := models.ComparisonEvent{UserID: "u1", SavingsKind: models.SavingsNone}
	if err := applyWithRetry(context.Background(), f, ev, 0, time.Millisecond); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestApplySkipsTimeSavingsMoney(t *testing.T) {
	f := newFakeCounters(0)
	ev := models.ComparisonEvent{UserID: "u1", SavingsKind: models.SavingsTime, MinutesSaved: 4}
	if err := applyWithRetry(context.Background(), f, ev, 1, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.floats["total_savings"]; ok {
		t.Fatal("time savings must not feed the monetary counter")
	}
	if f.ints["minutes_saved"] != 4 || f.ints["ride_count"] != 1 {
		t.Fatalf("counters wrong: %+v", f.ints)
	}
}
