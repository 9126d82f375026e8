package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/auth"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type Service struct {
	staffRepo repository.StaffRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	auditor   *audit.Service
}

func NewService(staffRepo repository.StaffRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		staffRepo: staffRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		auditor:   auditor,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	staff, err := s.staffRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if staff.Status == model.StaffStatusLocked {
		if time.Since(staff.LastLoginAttempt) < lockoutDuration {
			return nil, fmt.Errorf("account is locked, please try again later")
		}
		staff.Status = model.StaffStatusActive
		staff.LoginAttempts = 0
	}

	if err := s.hasher.Compare(staff.PasswordHash, password); err != nil {
		staff.LoginAttempts++
		staff.LastLoginAttempt = time.Now()
		if staff.LoginAttempts >= maxLoginAttempts {
			staff.Status = model.StaffStatusLocked
		}
		if err := s.staffRepo.Update(ctx, staff); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}
		return nil, ErrInvalidCredentials
	}

	staff.LoginAttempts = 0
	now := time.Now()
	staff.LastLoginAt = &now
	if err := s.staffRepo.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	accessToken, expiresAt, err := s.jwtSvc.GenerateAccessToken(staff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(staff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	s.auditor.Log(ctx, staff.ID, staff.PracticeID, model.AuditActionLogin, model.AuditEntityStaff, staff.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"email": staff.Email},
	})

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	staff, err := s.staffRepo.Get(ctx, claims.StaffID)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	if staff.Status != model.StaffStatusActive {
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.jwtSvc.GenerateAccessToken(staff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	newRefresh, err := s.jwtSvc.GenerateRefreshToken(staff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
