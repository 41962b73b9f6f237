package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"

	apiContext "minthook/internal/api/context"
	"minthook/internal/platform/models"
	"minthook/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	query := `
	CREATE TABLE integration_clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		callback_url TEXT NOT NULL,
		callback_secret TEXT NOT NULL,
		environment TEXT NOT NULL DEFAULT 'production',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE webhook_events (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		event TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		next_retry_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		metadata TEXT,
		ip_address TEXT,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func createTestClient(t *testing.T, repo *repositories.ClientRepository, active bool) *models.IntegrationClient {
	t.Helper()

	client := &models.IntegrationClient{
		Name:           "Test Client",
		CallbackURL:    "https://example.com/hooks",
		CallbackSecret: "whsec_test",
		IsActive:       active,
	}
	if err := repo.Create(client); err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if !active {
		if err := repo.SetActive(client.ID, false); err != nil {
			t.Fatalf("Failed to deactivate client: %v", err)
		}
	}
	return client
}

func withParams(r *http.Request, params httprouter.Params) *http.Request {
	ctx := context.WithValue(r.Context(), apiContext.Params, params)
	return r.WithContext(ctx)
}

func countAuditEntries(t *testing.T, db *sql.DB, action string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM audit_logs WHERE action = ?`, action).Scan(&n); err != nil {
		t.Fatalf("Failed to count audit entries: %v", err)
	}
	return n
}
