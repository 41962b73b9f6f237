package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"minthook/internal/platform/models"
)

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(client *models.IntegrationClient) error {
	client.ID = "cl_" + uuid.New().String()
	client.CreatedAt = time.Now().Unix()
	client.UpdatedAt = client.CreatedAt
	if client.Environment == "" {
		client.Environment = "production"
	}

	query := `
		INSERT INTO integration_clients (id, name, callback_url, callback_secret, environment, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, client.ID, client.Name, client.CallbackURL, client.CallbackSecret,
		client.Environment, client.IsActive, client.CreatedAt, client.UpdatedAt)
	return err
}

func (r *ClientRepository) GetByID(id string) (*models.IntegrationClient, error) {
	query := `SELECT id, name, callback_url, callback_secret, environment, is_active, created_at, updated_at FROM integration_clients WHERE id = ?`
	row := r.db.QueryRow(query, id)

	var c models.IntegrationClient
	err := row.Scan(&c.ID, &c.Name, &c.CallbackURL, &c.CallbackSecret, &c.Environment, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) List() ([]*models.IntegrationClient, error) {
	query := `SELECT id, name, callback_url, callback_secret, environment, is_active, created_at, updated_at FROM integration_clients ORDER BY created_at DESC`
	return r.scanClients(r.db.Query(query))
}

// ListActive returns the clients that receive new events on fan-out.
func (r *ClientRepository) ListActive() ([]*models.IntegrationClient, error) {
	query := `SELECT id, name, callback_url, callback_secret, environment, is_active, created_at, updated_at FROM integration_clients WHERE is_active = 1 ORDER BY created_at ASC`
	return r.scanClients(r.db.Query(query))
}

func (r *ClientRepository) scanClients(rows *sql.Rows, err error) ([]*models.IntegrationClient, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.IntegrationClient
	for rows.Next() {
		var c models.IntegrationClient
		if err := rows.Scan(&c.ID, &c.Name, &c.CallbackURL, &c.CallbackSecret, &c.Environment, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

func (r *ClientRepository) Update(client *models.IntegrationClient) error {
	client.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE integration_clients
		SET name = ?, callback_url = ?, callback_secret = ?, environment = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, client.Name, client.CallbackURL, client.CallbackSecret,
		client.Environment, client.IsActive, client.UpdatedAt, client.ID)
	return err
}

func (r *ClientRepository) SetActive(id string, active bool) error {
	_, err := r.db.Exec(`UPDATE integration_clients SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().Unix(), id)
	return err
}
