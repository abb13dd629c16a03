package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     *string   `json:"username"`
	Picture      *string   `json:"picture"`
	PasswordHash *string   `json:"-"`
	Provider     string    `json:"provider"`
	GoogleID     *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
