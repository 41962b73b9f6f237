package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "minthook/internal/api/context"
	"minthook/internal/pkg/errors"
	"minthook/internal/pkg/validator"
	"minthook/internal/platform/audit"
	"minthook/internal/platform/models"
	"minthook/internal/platform/repositories"
)

type ClientHandler struct {
	clients *repositories.ClientRepository
	audit   *audit.Logger
}

func NewClientHandler(clients *repositories.ClientRepository, auditLog *audit.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, audit: auditLog}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		CallbackURL    string `json:"callback_url"`
		CallbackSecret string `json:"callback_secret"`
		Environment    string `json:"environment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name is required", nil)
		return
	}
	if err := validator.ValidateCallbackURL(req.CallbackURL); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	client := &models.IntegrationClient{
		Name:           req.Name,
		CallbackURL:    req.CallbackURL,
		CallbackSecret: req.CallbackSecret,
		Environment:    req.Environment,
		IsActive:       true,
	}
	if client.CallbackSecret == "" {
		client.CallbackSecret = "whsec_" + uuid.New().String()
	}

	if err := h.clients.Create(client); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	h.audit.Log(r, "client.created", "integration_client", client.ID, map[string]interface{}{
		"name":        client.Name,
		"environment": client.Environment,
	})

	// The secret is returned once, on creation only.
	resp := struct {
		*models.IntegrationClient
		CallbackSecret string `json:"callback_secret"`
	}{client, client.CallbackSecret}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(clients)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("client_id")

	client, err := h.clients.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Client not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("client_id")

	var req struct {
		Name           *string `json:"name"`
		CallbackURL    *string `json:"callback_url"`
		CallbackSecret *string `json:"callback_secret"`
		Environment    *string `json:"environment"`
		IsActive       *bool   `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	client, err := h.clients.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Client not found", nil)
		return
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.CallbackURL != nil {
		if err := validator.ValidateCallbackURL(*req.CallbackURL); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		client.CallbackURL = *req.CallbackURL
	}
	if req.CallbackSecret != nil {
		client.CallbackSecret = *req.CallbackSecret
	}
	if req.Environment != nil {
		client.Environment = *req.Environment
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	if err := h.clients.Update(client); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	meta := map[string]interface{}{"is_active": client.IsActive}
	if req.CallbackSecret != nil {
		meta["secret_rotated"] = true
	}
	h.audit.Log(r, "client.updated", "integration_client", client.ID, meta)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}
