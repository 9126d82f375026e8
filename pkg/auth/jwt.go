package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// JWTService issues and validates the API's bearer tokens.
type JWTService interface {
	GenerateAccessToken(staff *model.StaffMember) (string, time.Time, error)
	GenerateRefreshToken(staff *model.StaffMember) (string, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
}

type Config struct {
	Secret        string
	RefreshSecret string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	return &jwtService{cfg: cfg}
}

type claims struct {
	jwt.RegisteredClaims
	StaffID    string `json:"staff_id"`
	PracticeID string `json:"practice_id"`
	Email      string `json:"email"`
}

func (s *jwtService) GenerateAccessToken(staff *model.StaffMember) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.cfg.Expiry)
	signed, err := s.generate(staff, s.cfg.Secret, expiresAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *jwtService) GenerateRefreshToken(staff *model.StaffMember) (string, error) {
	signed, err := s.generate(staff, s.cfg.RefreshSecret, time.Now().Add(s.cfg.RefreshExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) generate(staff *model.StaffMember, secret string, expiresAt time.Time) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		StaffID:    staff.ID.String(),
		PracticeID: staff.PracticeID.String(),
		Email:      staff.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func (s *jwtService) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, s.cfg.Secret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, s.cfg.RefreshSecret)
}

func (s *jwtService) validate(tokenStr, secret string) (*model.TokenClaims, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	staffID, err := uuid.Parse(c.StaffID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad staff id", ErrInvalidToken)
	}
	practiceID, err := uuid.Parse(c.PracticeID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad practice id", ErrInvalidToken)
	}

	return &model.TokenClaims{
		StaffID:    staffID,
		PracticeID: practiceID,
		Email:      c.Email,
	}, nil
}
