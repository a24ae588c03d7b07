package models

import "time"

// Credential is a stored user API key for a workflow backend.
// The secret value is never serialized on read paths.
type Credential struct {
	ID        string    `json:"id" db:"id"`
	Owner     string    `json:"owner" db:"owner"`
	Name      string    `json:"name" db:"name"`
	Value     string    `json:"-" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateKeyRequest represents the request to store an API key
type CreateKeyRequest struct {
	Owner string `json:"owner" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// KeyResponse represents a stored API key with its secret masked
type KeyResponse struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}
