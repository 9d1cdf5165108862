package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts every handler. Static paths are registered before the
// parameterized ones so /trades/sent never matches /trades/{id}.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/users", h.CreateUserHandler).Methods("POST")
	v1.HandleFunc("/users/{id:[0-9]+}", h.GetUserHandler).Methods("GET")
	v1.HandleFunc("/users/{id:[0-9]+}/items", h.ListUserItemsHandler).Methods("GET")
	v1.HandleFunc("/items", h.CreateItemHandler).Methods("POST")
	v1.HandleFunc("/items/{id:[0-9]+}", h.GetItemHandler).Methods("GET")

	v1.HandleFunc("/trades", h.CreateTradeHandler).Methods("POST")
	v1.HandleFunc("/trades/sent", h.ListSentTradesHandler).Methods("GET")
	v1.HandleFunc("/trades/received", h.ListReceivedTradesHandler).Methods("GET")
	v1.HandleFunc("/trades/{id:[0-9]+}", h.GetTradeHandler).Methods("GET")
	v1.HandleFunc("/trades/{id:[0-9]+}/transition", h.TransitionTradeHandler).Methods("POST")
	v1.HandleFunc("/trades/{id:[0-9]+}/deposit", h.GetDepositQuoteHandler).Methods("GET")
	v1.HandleFunc("/trades/{id:[0-9]+}/deposit", h.PayDepositHandler).Methods("POST")
	v1.HandleFunc("/trades/{id:[0-9]+}/ship", h.ShipItemHandler).Methods("POST")

	v1.HandleFunc("/wallet", h.GetWalletHandler).Methods("GET")
	v1.HandleFunc("/wallet/transactions", h.GetTransactionsHandler).Methods("GET")
	v1.HandleFunc("/wallet/sign-in", h.SignInHandler).Methods("POST")
	v1.HandleFunc("/wallet/recharge", h.RechargeHandler).Methods("POST")

	v1.HandleFunc("/credit", h.GetCreditHandler).Methods("GET")
	v1.HandleFunc("/credit/records", h.GetCreditRecordsHandler).Methods("GET")

	v1.HandleFunc("/notifications", h.ListNotificationsHandler).Methods("GET")

	return r
}
