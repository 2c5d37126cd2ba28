package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-compare/internal/analytics"
	"github.com/example/ride-compare/internal/config"
	"github.com/example/ride-compare/internal/gazetteer"
	"github.com/example/ride-compare/internal/market"
	"github.com/example/ride-compare/internal/models"
	"github.com/example/ride-compare/internal/storage"
	"github.com/example/ride-compare/internal/stream"
)

func testServer() *Server {
	cfg := config.ServerConfig{DefaultUserID: "demo-user", HistoryLimit: 20}
	return NewServer(cfg, Deps{
		Store:     storage.NewMemoryStore(),
		Engine:    market.NewWithSource(rand.New(rand.NewSource(42))),
		Gazetteer: gazetteer.NewSeededIndex(),
		Stream:    stream.NewRegistry(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestListRidesIdempotent(t *testing.T) {
	s := testServer()
	first := doJSON(t, s, "GET", "/api/rides", nil)
	second := doJSON(t, s, "GET", "/api/rides", nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("status: %d, %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("catalog changed between identical reads")
	}
	var rides []models.RideOffer
	if err := json.Unmarshal(first.Body.Bytes(), &rides); err != nil {
		t.Fatal(err)
	}
	if len(rides) != 6 {
		t.Fatalf("expected 6 catalog offers, got %d", len(rides))
	}
}

func TestGetRideNotFound(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s, "GET", "/api/rides/hoverboard", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestGetRideKnown(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s, "GET", "/api/rides/uber-black", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	var ride models.RideOffer
	if err := json.Unmarshal(rec.Body.Bytes(), &ride); err != nil {
		t.Fatal(err)
	}
	if ride.ID != "uber-black" || ride.LuxuryTier != 5 {
		t.Fatalf("wrong ride: %+v", ride)
	}
}

func TestCompareValidation(t *testing.T) {
	s := testServer()

	rec := doJSON(t, s, "POST", "/api/rides/compare", compareRequest{ToLocation: "B", Preference: "price"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing origin accepted: %d", rec.Code)
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Details) == 0 {
		t.Fatal("expected enumerated validation details")
	}

	rec = doJSON(t, s, "POST", "/api/rides/compare", compareRequest{FromLocation: "A", ToLocation: "B", Preference: "comfort"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad preference accepted: %d", rec.Code)
	}
}

func TestCompareDefaultsToPricePreference(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s, "POST", "/api/rides/compare", compareRequest{FromLocation: "A", ToLocation: "B"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	var resp compareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TripInfo.Preference != models.PrefPrice {
		t.Fatalf("default preference: %s", resp.TripInfo.Preference)
	}
}

func TestCompareRecommendedFirstAndCheapest(t *testing.T) {
	s := testServer()
	for trial := 0; trial < 20; trial++ {
		rec := doJSON(t, s, "POST", "/api/rides/compare",
			compareRequest{FromLocation: "A", ToLocation: "B", Preference: "price"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status: %d", rec.Code)
		}
		var resp compareResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Rides) != 6 {
			t.Fatalf("expected all offers quoted, got %d", len(resp.Rides))
		}
		if resp.Rides[0].ID != resp.RecommendedRide.ID || !resp.Rides[0].Recommended {
			t.Fatalf("recommended offer not at index 0: %+v", resp.Rides[0])
		}
		for _, q := range resp.Rides {
			if resp.RecommendedRide.AdjustedPrice > q.AdjustedPrice {
				t.Fatalf("recommended %v dearer than %s at %v",
					resp.RecommendedRide.AdjustedPrice, q.ID, q.AdjustedPrice)
			}
			if q.Recommended && q.ID != resp.RecommendedRide.ID {
				t.Fatal("more than one offer flagged recommended")
			}
		}
		if resp.TripInfo.EstimatedDuration != "12 min" {
			t.Fatalf("placeholder duration: %s", resp.TripInfo.EstimatedDuration)
		}
	}
}

func TestCompareLuxuryRecommendsEligible(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s, "POST", "/api/rides/compare",
		compareRequest{FromLocation: "A", ToLocation: "B", Preference: "luxury"})
	var resp compareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RecommendedRide.LuxuryTier < 4 {
		t.Fatalf("luxury preference recommended tier %d", resp.RecommendedRide.LuxuryTier)
	}
}

func TestCompareHistoryAnalyticsRoundTrip(t *testing.T) {
	s := testServer()

	rec := doJSON(t, s, "GET", "/api/user/savings-analytics?period=ALL", nil)
	var before analytics.Summary
	_ = json.Unmarshal(rec.Body.Bytes(), &before)
	if before.RideCount != 0 || before.TotalSavings != 0 || len(before.TimeSeries) != 0 {
		t.Fatalf("fresh user not zeroed: %+v", before)
	}

	if rec := doJSON(t, s, "POST", "/api/rides/compare",
		compareRequest{FromLocation: "A", ToLocation: "B", Preference: "price"}); rec.Code != http.StatusOK {
		t.Fatalf("compare failed: %d", rec.Code)
	}

	rec = doJSON(t, s, "GET", "/api/user/ride-history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status: %d", rec.Code)
	}
	var history []models.ComparisonRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Preference != models.PrefPrice {
		t.Fatalf("history: %+v", history)
	}

	rec = doJSON(t, s, "GET", "/api/user/savings-analytics?period=ALL", nil)
	var after analytics.Summary
	_ = json.Unmarshal(rec.Body.Bytes(), &after)
	if after.RideCount != 1 || len(after.TimeSeries) != 1 {
		t.Fatalf("analytics did not reflect comparison: %+v", after)
	}

	rec = doJSON(t, s, "GET", "/api/user/profile", nil)
	var profile models.UserProfile
	_ = json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.TotalRideCount != 1 {
		t.Fatalf("profile counter not bumped: %+v", profile)
	}
}

func TestAnalyticsUnknownPeriod(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s, "GET", "/api/user/savings-analytics?period=2D", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestUserIsolationViaHeader(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest("POST", "/api/rides/compare",
		bytes.NewBufferString(`{"fromLocation":"A","toLocation":"B","preference":"price"}`))
	req.Header.Set("X-User-ID", "alice")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("compare: %d", rec.Code)
	}

	// default user sees nothing
	rec2 := doJSON(t, s, "GET", "/api/user/ride-history", nil)
	var history []models.ComparisonRequest
	_ = json.Unmarshal(rec2.Body.Bytes(), &history)
	if len(history) != 0 {
		t.Fatalf("history leaked across users: %+v", history)
	}
}

func TestPaymentMethodUpdate(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s, "PUT", "/api/user/payment-method", paymentMethodRequest{PaymentMethod: "pm_visa_4242"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	var profile models.UserProfile
	_ = json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.PreferredPaymentMethod != "pm_visa_4242" {
		t.Fatalf("not stored: %+v", profile)
	}

	if rec := doJSON(t, s, "PUT", "/api/user/payment-method", paymentMethodRequest{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty method accepted: %d", rec.Code)
	}
}

func TestAddressSearch(t *testing.T) {
	s := testServer()
	rec := doJSON(t, s, "GET", "/api/addresses/search?q=golden", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var addrs []models.Address
	if err := json.Unmarshal(rec.Body.Bytes(), &addrs); err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || addrs[0].MainText != "Golden Gate Park" {
		t.Fatalf("got %+v", addrs)
	}

	rec = doJSON(t, s, "GET", "/api/addresses/search?q=san", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &addrs)
	if len(addrs) > 5 {
		t.Fatalf("more than 5 candidates: %d", len(addrs))
	}
}

func TestWSReconnectKeepsLiveSocket(t *testing.T) {
	s := testServer()
	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/u1"
	stale, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer stale.Close()

	live, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer live.Close()

	// reconnecting closes the stale connection server-side; wait until
	// its reader sees that so the old session's cleanup has already run
	_ = stale.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := stale.ReadMessage(); err == nil {
		t.Fatal("stale connection should have been closed on reconnect")
	}
	time.Sleep(50 * time.Millisecond)

	body, _ := json.Marshal(compareRequest{FromLocation: "Home", ToLocation: "Work", Preference: "price"})
	req, err := http.NewRequest("POST", srv.URL+"/api/rides/compare", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-User-ID", "u1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("compare status: %d", resp.StatusCode)
	}

	_ = live.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pushed compareResponse
	if err := live.ReadJSON(&pushed); err != nil {
		t.Fatalf("replacement socket received no push: %v", err)
	}
	if len(pushed.Rides) == 0 {
		t.Fatal("pushed comparison carries no rides")
	}
}
