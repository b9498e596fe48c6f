package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chatty-backend/internal/model"
	"chatty-backend/internal/pkg/jwtutil"
	"chatty-backend/internal/repository"
)

const testSecret = "test-secret"

func newAuthTestService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	return NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		testSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
}

func registerTestUser(t *testing.T, svc *AuthService) *AuthResult {
	t.Helper()
	result, err := svc.Register(RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
		FullName: "Alice Example",
	})
	require.NoError(t, err)
	return result
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)

	result := registerTestUser(t, svc)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, "Alice Example", result.User.FullName)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.NotEqual(t, result.Tokens.AccessToken, result.Tokens.RefreshToken)

	claims, err := jwtutil.ParseToken(testSecret, result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, jwtutil.TokenTypeAccess, claims.TokenType)

	// The refresh token is stored server-side on issuance.
	var stored model.RefreshToken
	require.NoError(t, db.Where("token = ?", result.Tokens.RefreshToken).First(&stored).Error)
	assert.Equal(t, result.User.ID, stored.UserID)
	assert.True(t, stored.ExpiresAt.After(time.Now()))
}

func TestRegister_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing username", RegisterInput{Email: "a@b.com", Password: "password123"}},
		{"missing email", RegisterInput{Username: "a", Password: "password123"}},
		{"missing password", RegisterInput{Username: "a", Email: "a@b.com"}},
		{"short password", RegisterInput{Username: "a", Email: "a@b.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registerTestUser(t, svc)

	_, err := svc.Register(RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(RegisterInput{
		Username: "bob",
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registerTestUser(t, svc)

	result, err := svc.Login(LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	require.NotNil(t, result.User.LastLogin)

	// Email matching is case-insensitive.
	_, err = svc.Login(LoginInput{Email: "ALICE@example.com", Password: "password123"})
	assert.NoError(t, err)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registerTestUser(t, svc)

	_, err := svc.Login(LoginInput{Email: "alice@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogin_AccumulatesRefreshTokens(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	result := registerTestUser(t, svc)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(LoginInput{Email: "alice@example.com", Password: "password123"})
		require.NoError(t, err)
	}

	// Register issued one, each login another, none invalidated.
	count, err := repository.NewRefreshTokenRepository(db).CountByUserID(result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestRefresh_RotatesToken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registered := registerTestUser(t, svc)

	refreshed, err := svc.Refresh(registered.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)
	assert.NotEqual(t, registered.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	// The presented token was rotated out; replaying it fails.
	_, err = svc.Refresh(registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_RejectsBadTokens(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registered := registerTestUser(t, svc)

	_, err := svc.Refresh("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// An access token is not accepted in place of a refresh token.
	_, err = svc.Refresh(registered.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRefresh_ExpiredStoredToken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registered := registerTestUser(t, svc)

	// Force the stored row past its expiry; the JWT itself is still valid.
	require.NoError(t, db.Model(&model.RefreshToken{}).
		Where("token = ?", registered.Tokens.RefreshToken).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err := svc.Refresh(registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registered := registerTestUser(t, svc)

	newName := "alice2"
	bio := "I write Go."
	user, err := svc.UpdateProfile(registered.User.ID, UpdateProfileInput{
		Username: &newName,
		Bio:      &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", user.Username)
	assert.Equal(t, "I write Go.", user.Bio)
	assert.Equal(t, "Alice Example", user.FullName, "untouched fields stay as they were")
}

func TestUpdateProfile_UsernameTaken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)
	registered := registerTestUser(t, svc)

	_, err := svc.Register(RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	taken := "bob"
	_, err = svc.UpdateProfile(registered.User.ID, UpdateProfileInput{Username: &taken})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthTestService(t, db)

	bio := "ghost"
	_, err := svc.UpdateProfile(12345, UpdateProfileInput{Bio: &bio})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
