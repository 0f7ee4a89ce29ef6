package identity

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo       identity.UserRepository
	membershipRepo identity.MembershipRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	config         AuthServiceConfig
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	membershipRepo identity.MembershipRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if config.MaxLoginAttempts <= 0 || config.LockDuration <= 0 {
		config = DefaultAuthServiceConfig()
	}
	return &AuthService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		jwtService:     jwtService,
		blacklist:      blacklist,
		config:         config,
		logger:         logger,
	}
}

// Register creates a user without any company. The user picks or creates
// one during onboarding.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserInfo, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrUsernameTaken
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrEmailTaken
	}

	user, err := identity.NewUser(input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	info := toUserInfo(user)
	return &info, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("login", input.Login))

	user, err := s.userRepo.FindByLogin(ctx, input.Login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("login", input.Login))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.Int64("user_id", user.ID))
			return nil, identity.ErrAccountLocked
		}
		s.logger.Warn("Login attempt for deactivated account", zap.Int64("user_id", user.ID))
		return nil, identity.ErrAccountDisabled
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.Int64("user_id", user.ID),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, identity.ErrAccountLocked.WithMessage("Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.Int64("user_id", user.ID),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, identity.ErrInvalidCredentials
	}

	tenantID, err := activeCompanyOf(ctx, s.membershipRepo, user)
	if err != nil {
		return nil, err
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   user.ID,
		TenantID: tenantID,
		Username: user.Username,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	user.RecordLoginSuccess()
	if err := s.userRepo.Update(ctx, user); err != nil {
		// The tokens are already valid; a lost login stamp is not worth failing for
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return &LoginResult{Tokens: toTokenResult(pair), User: toUserInfo(user)}, nil
}

// Refresh mints a new token pair; the tenant claim reflects the current active company
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	verified, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if err := s.checkBlacklist(ctx, verified); err != nil {
		return nil, err
	}

	userID, ok := verified.UserID()
	if !ok {
		return nil, identity.ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.CanLogin() {
		s.logger.Warn("Token refresh for inactive user", zap.Int64("user_id", userID))
		return nil, identity.ErrAccountDisabled
	}

	tenantID, err := activeCompanyOf(ctx, s.membershipRepo, user)
	if err != nil {
		return nil, err
	}
	pair, err := s.jwtService.RefreshTokenPair(refreshToken, tenantID)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the access token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.Int64("user_id", input.UserID))

	if input.TokenJTI == "" || input.TokenTTL <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return err
	}
	return nil
}

// GetCurrentUser returns the signed-in user
func (s *AuthService) GetCurrentUser(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user)
	return &info, nil
}

// ChangePassword replaces the password and revokes every token issued so far
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.VerifyPassword(oldPassword) {
		return identity.ErrInvalidCredentials.WithMessage("Current password is incorrect")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	if err := s.blacklist.RevokeIssuedBefore(ctx, userID, time.Now(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke tokens after password change", zap.Error(err))
		return err
	}

	s.logger.Info("User password changed", zap.Int64("user_id", userID))
	return nil
}

// VerifyAccessToken validates an access token and checks the blacklist
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*auth.VerifiedToken, error) {
	verified, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.checkBlacklist(ctx, verified); err != nil {
		return nil, err
	}
	return verified, nil
}

func (s *AuthService) checkBlacklist(ctx context.Context, verified *auth.VerifiedToken) error {
	if s.blacklist == nil || verified.ID == "" {
		return nil
	}
	userID, _ := verified.UserID()
	revoked, err := s.blacklist.IsRevoked(ctx, verified.ID, userID, verified.IssuedAt)
	if err != nil {
		s.logger.Error("Failed to check token blacklist", zap.Error(err))
		return err
	}
	if revoked {
		return identity.ErrUnauthenticated.WithMessage("Token has been revoked")
	}
	return nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return identity.ErrUnauthenticated.WithMessage("Token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return identity.ErrUnauthenticated.WithMessage("Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidTokenType):
		return identity.ErrUnauthenticated.WithMessage("Wrong token type")
	default:
		return identity.ErrUnauthenticated.WithMessage("Invalid token")
	}
}

func toTokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}
