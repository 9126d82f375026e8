package model

import (
	"time"

	"github.com/google/uuid"
)

type TokenClaims struct {
	StaffID    uuid.UUID `json:"staff_id"`
	PracticeID uuid.UUID `json:"practice_id"`
	Email      string    `json:"email"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
