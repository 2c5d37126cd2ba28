package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-compare/internal/analytics"
	"github.com/example/ride-compare/internal/config"
	"github.com/example/ride-compare/internal/gazetteer"
	"github.com/example/ride-compare/internal/ingest"
	"github.com/example/ride-compare/internal/market"
	"github.com/example/ride-compare/internal/models"
	"github.com/example/ride-compare/internal/observability"
	"github.com/example/ride-compare/internal/payments"
	"github.com/example/ride-compare/internal/ranking"
	"github.com/example/ride-compare/internal/savings"
	"github.com/example/ride-compare/internal/storage"
	"github.com/example/ride-compare/internal/stream"
)

// estimatedDuration is a fixed placeholder; real trip durations would
// come from a mapping service.
const estimatedDuration = "12 min"

type Server struct {
	store     storage.Store
	engine    *market.Engine
	gazetteer gazetteer.Gazetteer
	kafka     *ingest.KafkaProducer
	stream    *stream.Registry
	stripe    *payments.StripeClient
	logger    *slog.Logger

	defaultUserID string
	historyLimit  int

	mux *mux.Router
}

type Deps struct {
	Store     storage.Store
	Engine    *market.Engine
	Gazetteer gazetteer.Gazetteer
	Kafka     *ingest.KafkaProducer // optional
	Stream    *stream.Registry
	Stripe    *payments.StripeClient // optional
	Logger    *slog.Logger
}

func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		store:         deps.Store,
		engine:        deps.Engine,
		gazetteer:     deps.Gazetteer,
		kafka:         deps.Kafka,
		stream:        deps.Stream,
		stripe:        deps.Stripe,
		logger:        deps.Logger,
		defaultUserID: cfg.DefaultUserID,
		historyLimit:  cfg.HistoryLimit,
		mux:           mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/rides", s.handleListRides).Methods("GET")
	s.mux.HandleFunc("/api/rides/compare", s.handleCompare).Methods("POST")
	s.mux.HandleFunc("/api/rides/{id}", s.handleGetRide).Methods("GET")

	s.mux.HandleFunc("/api/user/profile", s.handleProfile).Methods("GET")
	s.mux.HandleFunc("/api/user/ride-history", s.handleHistory).Methods("GET")
	s.mux.HandleFunc("/api/user/savings-analytics", s.handleAnalytics).Methods("GET")
	s.mux.HandleFunc("/api/user/payment-method", s.handlePaymentMethod).Methods("PUT")

	s.mux.HandleFunc("/api/addresses/search", s.handleAddressSearch).Methods("GET")

	s.mux.HandleFunc("/ws/{user_id}", s.handleWS)

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// userID threads an explicit account id through every storage call.
// There is no auth layer; the header is trusted and absent means the
// demo account.
func (s *Server) userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return s.defaultUserID
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	rides, err := s.store.ListRides(r.Context())
	if err != nil {
		s.logger.Error("catalog read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch rides")
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ride, err := s.store.GetRide(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "ride not found")
		return
	}
	if err != nil {
		s.logger.Error("catalog read failed", "ride_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch ride details")
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

type compareRequest struct {
	FromLocation string `json:"fromLocation"`
	ToLocation   string `json:"toLocation"`
	Preference   string `json:"preference"`
}

type tripInfo struct {
	FromLocation      string            `json:"fromLocation"`
	ToLocation        string            `json:"toLocation"`
	EstimatedDuration string            `json:"estimatedDuration"`
	Preference        models.Preference `json:"preference"`
}

type compareResponse struct {
	Rides           []models.QuotedOffer `json:"rides"`
	RecommendedRide models.QuotedOffer   `json:"recommendedRide"`
	TripInfo        tripInfo             `json:"tripInfo"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pref, details := validateCompare(req)
	if len(details) > 0 {
		writeError(w, http.StatusBadRequest, "invalid request data", details...)
		return
	}

	catalog, err := s.store.ListRides(r.Context())
	if err != nil {
		s.logger.Error("catalog read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compare rides")
		return
	}

	quotes := s.engine.Quote(catalog)
	recommended, err := ranking.SelectRecommended(quotes, pref)
	if err != nil {
		// zero offers means the seed never ran; surface as fatal
		s.logger.Error("ranking failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compare rides")
		return
	}
	sorted := ranking.SortForDisplay(quotes, pref, recommended.ID)
	recommended = sorted[0]
	saved := savings.Compute(sorted, pref)

	record := &models.ComparisonRequest{
		ID:                 newID(),
		UserID:             s.userID(r),
		OriginText:         req.FromLocation,
		DestinationText:    req.ToLocation,
		Preference:         pref,
		RecommendedOfferID: recommended.ID,
		SavingsAmount:      saved.Amount,
		SavingsKind:        saved.Kind,
		MinutesSaved:       saved.Minutes,
		CreatedAt:          time.Now(),
	}
	if err := s.store.RecordComparison(r.Context(), record); err != nil {
		s.logger.Error("comparison record failed", "user_id", record.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compare rides")
		return
	}

	observability.ComparisonsTotal.WithLabelValues(string(pref)).Inc()
	observability.SavingsRecorded.WithLabelValues(string(saved.Kind)).Add(saved.Amount)
	observability.MinutesSavedRecorded.Add(float64(saved.Minutes))

	if s.kafka != nil {
		if err := s.kafka.PublishComparison(models.ComparisonEvent{
			ComparisonID:  record.ID,
			UserID:        record.UserID,
			SavingsAmount: record.SavingsAmount,
			SavingsKind:   record.SavingsKind,
			MinutesSaved:  record.MinutesSaved,
			CreatedAt:     record.CreatedAt,
		}); err != nil {
			s.logger.Warn("comparison event publish failed", "error", err)
		}
	}

	resp := compareResponse{
		Rides:           sorted,
		RecommendedRide: recommended,
		TripInfo: tripInfo{
			FromLocation:      req.FromLocation,
			ToLocation:        req.ToLocation,
			EstimatedDuration: estimatedDuration,
			Preference:        pref,
		},
	}
	_ = s.stream.Push(record.UserID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func validateCompare(req compareRequest) (models.Preference, []string) {
	var details []string
	if req.FromLocation == "" {
		details = append(details, "fromLocation: origin location is required")
	}
	if req.ToLocation == "" {
		details = append(details, "toLocation: destination is required")
	}
	pref := models.PrefPrice
	if req.Preference != "" {
		pref = models.Preference(req.Preference)
		if !pref.Valid() {
			details = append(details, "preference: must be one of price, speed, luxury")
		}
	}
	return pref, details
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.GetProfile(r.Context(), s.userID(r))
	if err != nil {
		s.logger.Error("profile read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.ListComparisons(r.Context(), s.userID(r), s.historyLimit)
	if err != nil {
		s.logger.Error("history read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch ride history")
		return
	}
	if history == nil {
		history = []models.ComparisonRequest{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request data",
			"period: must be one of 1W, 3M, 6M, 1Y, ALL")
		return
	}
	rows, err := s.store.ListComparisons(r.Context(), s.userID(r), 0)
	if err != nil {
		s.logger.Error("analytics read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch analytics")
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(rows, period, time.Now()))
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (s *Server) handlePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, "invalid request data",
			"paymentMethod: payment method is required")
		return
	}
	userID := s.userID(r)
	if s.stripe != nil {
		if _, err := s.stripe.Register(r.Context(), req.PaymentMethod, ""); err != nil {
			s.logger.Warn("stripe setup failed", "user_id", userID, "error", err)
			writeError(w, http.StatusBadRequest, "payment method could not be verified")
			return
		}
	}
	if err := s.store.SetPaymentMethod(r.Context(), userID, req.PaymentMethod); err != nil {
		s.logger.Error("payment method update failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update payment method")
		return
	}
	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleAddressSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results := s.gazetteer.Search(q)
	if results == nil {
		results = []models.Address{}
	}
	writeJSON(w, http.StatusOK, results)
}

var upgrader = websocket.Upgrader{}

// handleWS attaches a live feed: every comparison the user runs is
// pushed to this socket as it happens.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own HTTP error response
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	sess := s.stream.Add(userID, conn)
	go func() {
		// drain until the peer goes away, then drop this session;
		// Remove is identity-checked so a reconnect is never evicted
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.stream.Remove(userID, sess)
				_ = conn.Close()
				return
			}
		}
	}()
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
