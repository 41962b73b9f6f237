package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"minthook/internal/platform/audit"
	"minthook/internal/platform/repositories"
)

func TestClientHandler_Create(t *testing.T) {
	db := setupTestDB(t)
	clientRepo := repositories.NewClientRepository(db)
	handler := NewClientHandler(clientRepo, audit.NewLogger(db))

	body := `{"name": "Marketplace", "callback_url": "https://example.com/hooks", "environment": "staging"}`
	req := httptest.NewRequest("POST", "/api/v1/clients", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		CallbackSecret string `json:"callback_secret"`
		Environment    string `json:"environment"`
		IsActive       bool   `json:"is_active"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "cl_") {
		t.Errorf("Expected cl_ prefixed id, got %q", resp.ID)
	}
	if !strings.HasPrefix(resp.CallbackSecret, "whsec_") {
		t.Errorf("Expected generated whsec_ secret, got %q", resp.CallbackSecret)
	}
	if !resp.IsActive {
		t.Error("Expected new client to be active")
	}
	if got := countAuditEntries(t, db, "client.created"); got != 1 {
		t.Errorf("Expected 1 audit entry, got %d", got)
	}

	// The secret never appears on reads after creation.
	getReq := httptest.NewRequest("GET", "/api/v1/clients/"+resp.ID, nil)
	getReq = withParams(getReq, httprouter.Params{{Key: "client_id", Value: resp.ID}})
	getRec := httptest.NewRecorder()
	handler.Get(getRec, getReq)

	if getRec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", getRec.Code)
	}
	if strings.Contains(getRec.Body.String(), "whsec_") {
		t.Error("Secret leaked in client read response")
	}
}

func TestClientHandler_CreateValidation(t *testing.T) {
	db := setupTestDB(t)
	clientRepo := repositories.NewClientRepository(db)
	handler := NewClientHandler(clientRepo, audit.NewLogger(db))

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"callback_url": "https://example.com/hooks"}`},
		{"missing callback URL", `{"name": "Marketplace"}`},
		{"non-http scheme", `{"name": "Marketplace", "callback_url": "ftp://example.com/hooks"}`},
		{"malformed body", `{"name": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/clients", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestClientHandler_UpdateRotatesSecret(t *testing.T) {
	db := setupTestDB(t)
	clientRepo := repositories.NewClientRepository(db)
	handler := NewClientHandler(clientRepo, audit.NewLogger(db))

	client := createTestClient(t, clientRepo, true)

	body := `{"callback_secret": "whsec_rotated", "is_active": false}`
	req := httptest.NewRequest("PATCH", "/api/v1/clients/"+client.ID, strings.NewReader(body))
	req = withParams(req, httprouter.Params{{Key: "client_id", Value: client.ID}})
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, err := clientRepo.GetByID(client.ID)
	if err != nil {
		t.Fatalf("Failed to reload client: %v", err)
	}
	if updated.CallbackSecret != "whsec_rotated" {
		t.Errorf("Expected rotated secret, got %q", updated.CallbackSecret)
	}
	if updated.IsActive {
		t.Error("Expected client to be deactivated")
	}

	var meta string
	err = db.QueryRow(`SELECT metadata FROM audit_logs WHERE action = 'client.updated'`).Scan(&meta)
	if err != nil {
		t.Fatalf("Failed to read audit metadata: %v", err)
	}
	if !strings.Contains(meta, `"secret_rotated":true`) {
		t.Errorf("Expected secret_rotated in audit metadata, got %q", meta)
	}
}

func TestClientHandler_UpdateNotFound(t *testing.T) {
	db := setupTestDB(t)
	clientRepo := repositories.NewClientRepository(db)
	handler := NewClientHandler(clientRepo, audit.NewLogger(db))

	req := httptest.NewRequest("PATCH", "/api/v1/clients/cl_missing", strings.NewReader(`{"name": "x"}`))
	req = withParams(req, httprouter.Params{{Key: "client_id", Value: "cl_missing"}})
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
