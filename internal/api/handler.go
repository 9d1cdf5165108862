package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"barter-trade-go/internal/common"
	"barter-trade-go/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barter_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "barter_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	tradeTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barter_trade_transitions_total",
		Help: "Trade status transitions applied, labeled by resulting status",
	}, []string{"status"})
)

// Handler exposes the service graph over HTTP. The caller is identified by
// the X-User-Id header; authentication sits in front of this service.
type Handler struct {
	services *common.Services
}

func NewHandler(services *common.Services) *Handler {
	return &Handler{services: services}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, r.Method, "/health")
}

// callerId extracts the acting user from the X-User-Id header.
func callerId(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pagination reads limit/offset query parameters with service-side defaults.
func pagination(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// errorStatus maps a service error to an HTTP status through its sentinel.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, store.ErrInvalidOperation),
		errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrInvalidStateTransition),
		errors.Is(err, store.ErrAlreadyConfirmed),
		errors.Is(err, store.ErrAlreadySignedIn),
		errors.Is(err, store.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error, method, endpoint string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		respondError(w, status, "Internal Server Error", method, endpoint)
		return
	}
	respondError(w, status, err.Error(), method, endpoint)
}

func respondJSON(w http.ResponseWriter, code int, payload any, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
