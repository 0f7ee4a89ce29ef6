package identity

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Password123"

func createTestUser(t *testing.T, id int64, activeCompany *int64) *identity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &identity.User{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: id, CreatedAt: time.Now(), UpdatedAt: time.Now()},
			Version:    1,
		},
		Username:        "testuser",
		Email:           "test@example.com",
		PasswordHash:    string(hash),
		Status:          identity.UserStatusActive,
		ActiveCompanyID: activeCompany,
	}
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

func createAuthService(userRepo *MockUserRepository, memberships *MockMembershipRepository) (*AuthService, *auth.InMemoryTokenBlacklist) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	return NewAuthService(
		userRepo,
		memberships,
		newTestJWTService(),
		blacklist,
		DefaultAuthServiceConfig(),
		zap.NewNop(),
	), blacklist
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user without a company", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("ExistsByUsername", ctx, "ada").Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).
			Run(func(args mock.Arguments) { args.Get(1).(*identity.User).ID = 7 }).
			Return(nil)
		svc, _ := createAuthService(userRepo, new(MockMembershipRepository))

		info, err := svc.Register(ctx, RegisterInput{
			Username: "ada", Email: "ada@example.com", Password: testPassword, DisplayName: "Ada L.",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), info.ID)
		assert.Equal(t, "Ada L.", info.DisplayName)
		assert.Nil(t, info.ActiveCompanyID)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("ExistsByUsername", ctx, "ada").Return(true, nil)
		svc, _ := createAuthService(userRepo, new(MockMembershipRepository))

		_, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: testPassword})

		assert.ErrorIs(t, err, identity.ErrUsernameTaken)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	company := int64(6)
	user := createTestUser(t, 7, &company)

	userRepo := new(MockUserRepository)
	memberships := new(MockMembershipRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	memberships.On("Find", ctx, int64(7), int64(6)).Return(identity.NewMembership(7, 6, ""), nil)
	svc, _ := createAuthService(userRepo, memberships)

	result, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: testPassword})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
	assert.Equal(t, int64(7), result.User.ID)
	assert.NotNil(t, user.LastLoginAt)

	verified, err := svc.VerifyAccessToken(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	tenant, ok := identity.ParseNumericID(verified.Raw[identity.ClaimTenantID])
	assert.True(t, ok)
	assert.Equal(t, int64(6), tenant)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_OmitsTenantWhenMembershipEnded(t *testing.T) {
	ctx := context.Background()
	company := int64(6)
	user := createTestUser(t, 7, &company)
	ended := identity.NewMembership(7, 6, "")
	ended.Deactivate()

	userRepo := new(MockUserRepository)
	memberships := new(MockMembershipRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	memberships.On("Find", ctx, int64(7), int64(6)).Return(ended, nil)
	svc, _ := createAuthService(userRepo, memberships)

	result, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: testPassword})
	require.NoError(t, err)

	verified, err := svc.VerifyAccessToken(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	_, hasTenant := verified.Raw[identity.ClaimTenantID]
	assert.False(t, hasTenant)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, 7, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, _ := createAuthService(userRepo, new(MockMembershipRepository))

	result, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: "wrongpassword"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Equal(t, 1, user.FailedAttempts)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	userRepo.On("FindByLogin", ctx, "nobody").Return(nil, shared.ErrNotFound)
	svc, _ := createAuthService(userRepo, new(MockMembershipRepository))

	_, err := svc.Login(ctx, LoginInput{Login: "nobody", Password: testPassword})

	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestAuthService_Login_LocksAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, 7, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, _ := createAuthService(userRepo, new(MockMembershipRepository))

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: "wrongpassword"})
		require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: "wrongpassword"})
	assert.ErrorIs(t, err, identity.ErrAccountLocked)
	require.NotNil(t, user.LockedUntil)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *user.LockedUntil, 5*time.Second)

	// Even the right password is refused while locked
	_, err = svc.Login(ctx, LoginInput{Login: "testuser", Password: testPassword})
	assert.ErrorIs(t, err, identity.ErrAccountLocked)
}

func TestAuthService_Login_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, 7, nil)
	user.Status = identity.UserStatusDeactivated

	userRepo := new(MockUserRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	svc, _ := createAuthService(userRepo, new(MockMembershipRepository))

	_, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: testPassword})

	assert.ErrorIs(t, err, identity.ErrAccountDisabled)
}

func TestAuthService_Refresh_UsesCurrentActiveCompany(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, 7, nil)

	userRepo := new(MockUserRepository)
	memberships := new(MockMembershipRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	userRepo.On("FindByID", ctx, int64(7)).Return(user, nil)
	memberships.On("Find", ctx, int64(7), int64(8)).Return(identity.NewMembership(7, 8, ""), nil)
	svc, _ := createAuthService(userRepo, memberships)

	login, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: testPassword})
	require.NoError(t, err)

	// Onboarding happened after login
	require.NoError(t, user.SwitchCompany(8))

	refreshed, err := svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)

	verified, err := svc.VerifyAccessToken(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	tenant, _ := identity.ParseNumericID(verified.Raw[identity.ClaimTenantID])
	assert.Equal(t, int64(8), tenant)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, 7, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, _ := createAuthService(userRepo, new(MockMembershipRepository))

	login, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: testPassword})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, identity.ErrUnauthenticated)
}

func TestAuthService_Logout_BlacklistsToken(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, 7, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByLogin", ctx, "testuser").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, blacklist := createAuthService(userRepo, new(MockMembershipRepository))

	login, err := svc.Login(ctx, LoginInput{Login: "testuser", Password: testPassword})
	require.NoError(t, err)
	verified, err := svc.VerifyAccessToken(ctx, login.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, LogoutInput{UserID: 7, TokenJTI: verified.ID, TokenTTL: verified.RemainingTTL()}))

	revoked, err := blacklist.IsRevoked(ctx, verified.ID, 7, verified.IssuedAt)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = svc.VerifyAccessToken(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, identity.ErrUnauthenticated)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, 7, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", ctx, int64(7)).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, blacklist := createAuthService(userRepo, new(MockMembershipRepository))

	err := svc.ChangePassword(ctx, 7, "not-the-password", "NewPassword456")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, 7, testPassword, "NewPassword456"))
	assert.True(t, user.VerifyPassword("NewPassword456"))

	revoked, err := blacklist.IsRevoked(ctx, "earlier-session", 7, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsRevoked(ctx, "next-session", 7, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, revoked)
}
