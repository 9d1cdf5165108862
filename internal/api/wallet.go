package api

import (
	"encoding/json"
	"net/http"

	"barter-trade-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

func (h *Handler) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/wallet")
		return
	}

	wallet, err := h.services.LedgerService.GetWallet(r.Context(), userId)
	if err != nil {
		respondServiceError(w, err, "GET", "/wallet")
		return
	}
	respondJSON(w, http.StatusOK, wallet, "GET", "/wallet")
}

func (h *Handler) GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/wallet/transactions")
		return
	}
	limit, offset := pagination(r)

	txns, err := h.services.LedgerService.GetTransactions(r.Context(), userId, limit, offset)
	if err != nil {
		respondServiceError(w, err, "GET", "/wallet/transactions")
		return
	}
	respondJSON(w, http.StatusOK, txns, "GET", "/wallet/transactions")
}

func (h *Handler) SignInHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/wallet/sign-in"))
	defer timer.ObserveDuration()

	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "POST", "/wallet/sign-in")
		return
	}

	txn, err := h.services.LedgerService.SignIn(r.Context(), userId)
	if err != nil {
		respondServiceError(w, err, "POST", "/wallet/sign-in")
		return
	}
	respondJSON(w, http.StatusOK, txn, "POST", "/wallet/sign-in")
}

func (h *Handler) RechargeHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/wallet/recharge"))
	defer timer.ObserveDuration()

	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "POST", "/wallet/recharge")
		return
	}

	var req models.RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/wallet/recharge")
		return
	}

	txn, err := h.services.LedgerService.Recharge(r.Context(), userId, req.Amount)
	if err != nil {
		respondServiceError(w, err, "POST", "/wallet/recharge")
		return
	}
	respondJSON(w, http.StatusOK, txn, "POST", "/wallet/recharge")
}

func (h *Handler) GetCreditHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/credit")
		return
	}

	score, err := h.services.CreditService.GetScore(r.Context(), userId)
	if err != nil {
		respondServiceError(w, err, "GET", "/credit")
		return
	}
	respondJSON(w, http.StatusOK, score, "GET", "/credit")
}

func (h *Handler) GetCreditRecordsHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/credit/records")
		return
	}
	limit, offset := pagination(r)

	records, err := h.services.CreditService.GetRecords(r.Context(), userId, limit, offset)
	if err != nil {
		respondServiceError(w, err, "GET", "/credit/records")
		return
	}
	respondJSON(w, http.StatusOK, records, "GET", "/credit/records")
}

func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "GET", "/notifications")
		return
	}
	limit, offset := pagination(r)

	notifications, err := h.services.NotifyService.List(r.Context(), userId, limit, offset)
	if err != nil {
		respondServiceError(w, err, "GET", "/notifications")
		return
	}
	respondJSON(w, http.StatusOK, notifications, "GET", "/notifications")
}
