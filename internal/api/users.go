package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type createItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/users")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		respondError(w, http.StatusUnprocessableEntity, "Username is required", "POST", "/users")
		return
	}

	user, err := h.services.DbService.CreateUser(r.Context(), req.Username, req.Email)
	if err != nil {
		respondServiceError(w, err, "POST", "/users")
		return
	}
	respondJSON(w, http.StatusCreated, user, "POST", "/users")
}

func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id", "GET", "/users/{id}")
		return
	}

	user, err := h.services.DbService.GetUser(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "GET", "/users/{id}")
		return
	}
	respondJSON(w, http.StatusOK, user, "GET", "/users/{id}")
}

func (h *Handler) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	userId, ok := callerId(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing or invalid X-User-Id header", "POST", "/items")
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/items")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusUnprocessableEntity, "Title is required", "POST", "/items")
		return
	}

	item, err := h.services.DbService.CreateItem(r.Context(), req.Title, req.Description, userId)
	if err != nil {
		respondServiceError(w, err, "POST", "/items")
		return
	}
	respondJSON(w, http.StatusCreated, item, "POST", "/items")
}

func (h *Handler) GetItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item id", "GET", "/items/{id}")
		return
	}

	item, err := h.services.DbService.GetItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "GET", "/items/{id}")
		return
	}
	respondJSON(w, http.StatusOK, item, "GET", "/items/{id}")
}

func (h *Handler) ListUserItemsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id", "GET", "/users/{id}/items")
		return
	}

	items, err := h.services.DbService.ListItemsByOwner(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "GET", "/users/{id}/items")
		return
	}
	respondJSON(w, http.StatusOK, items, "GET", "/users/{id}/items")
}
