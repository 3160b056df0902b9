package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyes/pastpaper/internal/models"
)

type stubVerifier struct {
	enabled  bool
	password string
	err      error
}

func (v stubVerifier) Enabled() bool {
	return v.enabled
}

func (v stubVerifier) VerifyAdmin(_ context.Context, password string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	return password == v.password, nil
}

func TestCreateUser_FirstUserIsAdmin(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()

	user, err := userService.CreateUser(ctx, CreateUserInput{
		Username:    "alice01",
		DisplayName: "Alice",
		Password:    "pass-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice01", user.Username)
	assert.Equal(t, models.RoleAdmin, user.Role, "first user")
	assert.NotEmpty(t, user.PasswordHash)

	second, err := userService.CreateUser(ctx, CreateUserInput{Username: "bob01", Password: "pass-123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.Role, "second user")
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, CreateUserInput{Username: "bob01", Password: "pass-123"})
	require.NoError(t, err)
	_, err = userService.CreateUser(ctx, CreateUserInput{Username: "BOB01", Password: "pass-123"})
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestCreateUser_InvalidInput(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateUserInput
		want  error
	}{
		{name: "short username", input: CreateUserInput{Username: "ab", Password: "pass-123"}, want: ErrInvalidUsername},
		{name: "leading underscore", input: CreateUserInput{Username: "_abc", Password: "pass-123"}, want: ErrInvalidUsername},
		{name: "blank password", input: CreateUserInput{Username: "carol01", Password: "  "}, want: ErrInvalidPassword},
		{name: "unknown role", input: CreateUserInput{Username: "carol01", Password: "pass-123", Role: "ROOT"}, want: ErrInvalidRole},
	}
	for _, tt := range tests {
		_, err := userService.CreateUser(ctx, tt.input)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
}

func TestSignInWithPassword_Success(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()

	created, err := userService.CreateUser(ctx, CreateUserInput{
		Username: "signin01",
		Password: "pass-123",
	})
	require.NoError(t, err)

	user, token, err := userService.SignInWithPassword(ctx, "signin01", "pass-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)

	authUser, err := userService.AuthenticateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, authUser.ID)
}

func TestSignInWithPassword_InvalidCredentials(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, CreateUserInput{
		Username: "signin02",
		Password: "pass-123",
	})
	require.NoError(t, err)

	_, _, err = userService.SignInWithPassword(ctx, "signin02", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = userService.SignInWithPassword(ctx, "not-exists", "pass-123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown user")
}

func TestEnsureBootstrap_Idempotent(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, userService.EnsureBootstrap(ctx, "admin", "bootstrap-token"), "run %d", i)
	}
	user, err := userService.AuthenticateToken(ctx, "bootstrap-token")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, user.IsAdmin())

	_, tokens, err := userService.ListAccessTokensForUser(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestRevokeAccessToken(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()
	mustCreateUser(t, services.store, "dave01")

	expires := time.Now().Add(time.Hour)
	_, raw, err := userService.CreateAccessTokenForUserWithExpiry(ctx, "dave01", "", &expires)
	require.NoError(t, err)
	_, tokens, err := userService.ListAccessTokensForUser(ctx, "dave01")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "admin generated token", tokens[0].Description)

	revoked, err := userService.RevokeAccessTokenByID(ctx, tokens[0].ID)
	require.NoError(t, err)
	assert.NotNil(t, revoked.RevokedAt)

	_, err = userService.RevokeAccessTokenByID(ctx, tokens[0].ID)
	assert.ErrorIs(t, err, ErrTokenAlreadyRevoked)
	_, err = userService.AuthenticateToken(ctx, raw)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	past := time.Now().Add(-time.Minute)
	_, _, err = userService.CreateAccessTokenForUserWithExpiry(ctx, "dave01", "", &past)
	assert.ErrorIs(t, err, ErrInvalidTokenExpiry)
}

func TestSetPassword(t *testing.T) {
	services := setupTestServices(t)
	userService := NewUserService(services.store)
	ctx := context.Background()
	mustCreateUser(t, services.store, "erin01")

	require.NoError(t, userService.SetPassword(ctx, "erin01", "new-pass"))
	_, _, err := userService.SignInWithPassword(ctx, "erin01", "new-pass")
	require.NoError(t, err)
	assert.ErrorIs(t, userService.SetPassword(ctx, "nobody01", "new-pass"), sql.ErrNoRows)
}

func TestSignInAdmin(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()

	disabled := NewUserService(services.store)
	_, _, err := disabled.SignInAdmin(ctx, "secret")
	assert.ErrorIs(t, err, ErrRemoteAdminDisabled)

	userService := NewUserService(services.store).WithAdminVerifier(stubVerifier{enabled: true, password: "secret"}, "Admin")
	_, _, err = userService.SignInAdmin(ctx, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, token, err := userService.SignInAdmin(ctx, "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, models.RoleHost, user.Role)

	authUser, err := userService.AuthenticateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authUser.ID)

	_, tokens, err := userService.ListAccessTokensForUser(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.NotNil(t, tokens[0].ExpiresAt, "session token expires")

	failing := NewUserService(services.store).WithAdminVerifier(stubVerifier{enabled: true, err: errors.New("boom")}, "admin")
	_, _, err = failing.SignInAdmin(ctx, "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
