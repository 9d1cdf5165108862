package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"barter-trade-go/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

func (h *Handler) CreateTradeHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/trades"))
	defer timer.ObserveDuration()

	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "POST", "/trades")
		return
	}

	var req models.CreateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/trades")
		return
	}

	resp, err := h.services.TradeService.Create(r.Context(), userId, req)
	if err != nil {
		respondServiceError(w, err, "POST", "/trades")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/trades/%d", resp.Id))
	respondJSON(w, http.StatusCreated, resp, "POST", "/trades")
}

func (h *Handler) GetTradeHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/trades/{id}")
		return
	}
	tradeId, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade id", "GET", "/trades/{id}")
		return
	}

	resp, err := h.services.TradeService.Get(r.Context(), tradeId, userId)
	if err != nil {
		respondServiceError(w, err, "GET", "/trades/{id}")
		return
	}
	respondJSON(w, http.StatusOK, resp, "GET", "/trades/{id}")
}

func (h *Handler) ListSentTradesHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/trades/sent")
		return
	}
	limit, offset := pagination(r)

	trades, err := h.services.TradeService.ListSent(r.Context(), userId, limit, offset)
	if err != nil {
		respondServiceError(w, err, "GET", "/trades/sent")
		return
	}
	respondJSON(w, http.StatusOK, trades, "GET", "/trades/sent")
}

func (h *Handler) ListReceivedTradesHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/trades/received")
		return
	}
	limit, offset := pagination(r)

	trades, err := h.services.TradeService.ListReceived(r.Context(), userId, limit, offset)
	if err != nil {
		respondServiceError(w, err, "GET", "/trades/received")
		return
	}
	respondJSON(w, http.StatusOK, trades, "GET", "/trades/received")
}

// TransitionTradeHandler is the single endpoint for ACCEPTED, REJECTED,
// COMPLETED and CANCELLED requests. The state machine decides legality.
func (h *Handler) TransitionTradeHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/trades/{id}/transition"))
	defer timer.ObserveDuration()

	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "POST", "/trades/{id}/transition")
		return
	}
	tradeId, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade id", "POST", "/trades/{id}/transition")
		return
	}

	var req models.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/trades/{id}/transition")
		return
	}

	resp, err := h.services.TradeService.Transition(r.Context(), tradeId, userId, req.Status)
	if err != nil {
		respondServiceError(w, err, "POST", "/trades/{id}/transition")
		return
	}

	tradeTransitionsTotal.WithLabelValues(string(resp.Status)).Inc()
	respondJSON(w, http.StatusOK, resp, "POST", "/trades/{id}/transition")
}

func (h *Handler) GetDepositQuoteHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/trades/{id}/deposit")
		return
	}
	tradeId, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade id", "GET", "/trades/{id}/deposit")
		return
	}

	quote, err := h.services.TradeService.CalculateDeposit(r.Context(), tradeId, userId)
	if err != nil {
		respondServiceError(w, err, "GET", "/trades/{id}/deposit")
		return
	}
	respondJSON(w, http.StatusOK, quote, "GET", "/trades/{id}/deposit")
}

func (h *Handler) PayDepositHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/trades/{id}/deposit"))
	defer timer.ObserveDuration()

	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "POST", "/trades/{id}/deposit")
		return
	}
	tradeId, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade id", "POST", "/trades/{id}/deposit")
		return
	}

	resp, err := h.services.TradeService.PayDeposit(r.Context(), tradeId, userId)
	if err != nil {
		respondServiceError(w, err, "POST", "/trades/{id}/deposit")
		return
	}
	respondJSON(w, http.StatusOK, resp, "POST", "/trades/{id}/deposit")
}

func (h *Handler) ShipItemHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/trades/{id}/ship"))
	defer timer.ObserveDuration()

	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "POST", "/trades/{id}/ship")
		return
	}
	tradeId, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade id", "POST", "/trades/{id}/ship")
		return
	}

	var req models.ShipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/trades/{id}/ship")
		return
	}

	resp, err := h.services.TradeService.ShipItem(r.Context(), tradeId, userId, req.TrackingNo)
	if err != nil {
		respondServiceError(w, err, "POST", "/trades/{id}/ship")
		return
	}
	respondJSON(w, http.StatusOK, resp, "POST", "/trades/{id}/ship")
}
