// Package auth signs employees in to the dashboard and manages their tokens.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/auth"
)

// Service handles authentication operations
type Service struct {
	employees  workspace.EmployeeRepository
	activities workspace.ActivityRepository
	jwt        *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new authentication service. blacklist may be nil, in
// which case logout only succeeds client side.
func NewService(
	employees workspace.EmployeeRepository,
	activities workspace.ActivityRepository,
	jwt *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		employees:  employees,
		activities: activities,
		jwt:        jwt,
		blacklist:  blacklist,
		logger:     logger.Named("auth"),
		now:        time.Now,
	}
}

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// Login verifies credentials, issues a token pair and records a login activity
func (s *Service) Login(ctx context.Context, input LoginInput) (*TokenResult, error) {
	employee, err := s.employees.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email", zap.String("email", input.Email))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if employee.Status == workspace.EmployeeStatusInactive {
		s.logger.Warn("Login attempt for inactive account", zap.String("user_id", employee.ID))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}
	if !employee.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", employee.ID))
		return nil, errInvalidCredentials
	}

	result, err := s.issue(employee)
	if err != nil {
		return nil, err
	}

	now := s.now()
	employee.Touch(now)
	if err := s.employees.Save(ctx, employee); err != nil {
		s.logger.Error("Failed to update last seen after login", zap.Error(err))
	}
	activity := workspace.NewUserActivity(employee.CompanyID, employee.ID, employee.Department,
		workspace.ActivityLogin, "dashboard", 0, now)
	if err := s.activities.Save(ctx, activity); err != nil {
		s.logger.Error("Failed to record login activity", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", employee.ID),
		zap.String("company_id", employee.CompanyID),
		zap.String("ip", input.IP),
	)
	return result, nil
}

// Refresh exchanges a refresh token for a new pair, re-reading the employee so
// that role changes take effect.
func (s *Service) Refresh(ctx context.Context, input RefreshInput) (*TokenResult, error) {
	claims, err := s.jwt.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
	}

	employee, err := s.employees.FindByID(ctx, claims.CompanyID, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}
	if employee.Status == workspace.EmployeeStatusInactive {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	result, err := s.issue(employee)
	if err != nil {
		return nil, err
	}
	if s.blacklist != nil {
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
		}
	}
	return result, nil
}

// Logout revokes the access token until it would have expired
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return shared.ErrUnauthorized
	}
	if s.blacklist == nil {
		s.logger.Info("User logout without token blacklist", zap.String("user_id", claims.UserID))
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to blacklist token on logout", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke token")
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

// CurrentUser returns the profile behind claims
func (s *Service) CurrentUser(ctx context.Context, claims *auth.Claims) (*UserInfo, error) {
	if claims == nil {
		return nil, shared.ErrUnauthorized
	}
	employee, err := s.employees.FindByID(ctx, claims.CompanyID, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}
	info := userInfo(employee)
	return &info, nil
}

func (s *Service) issue(employee *workspace.Employee) (*TokenResult, error) {
	pair, err := s.jwt.GenerateTokenPair(auth.Subject{
		CompanyID:   employee.CompanyID,
		UserID:      employee.ID,
		Email:       employee.Email,
		Role:        employee.Role,
		Permissions: employee.Permissions(),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return &TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		ExpiresIn:             int(s.jwt.AccessTokenExpiration().Seconds()),
		User:                  userInfo(employee),
	}, nil
}

func userInfo(e *workspace.Employee) UserInfo {
	return UserInfo{
		ID:          e.ID,
		Email:       e.Email,
		Name:        e.Name,
		Role:        e.Role,
		Department:  e.Department,
		CompanyID:   e.CompanyID,
		Permissions: e.Permissions(),
	}
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrInvalidTokenType):
		return shared.NewDomainError("TOKEN_INVALID", "Not a refresh token")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
