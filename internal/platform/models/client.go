package models

type IntegrationClient struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CallbackURL    string `json:"callback_url"`
	CallbackSecret string `json:"-"`
	Environment    string `json:"environment"` // production, staging
	IsActive       bool   `json:"is_active"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}
