package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventra/internal/core/apperror"
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	branchID := id.New()
	actor := &appctx.ActorContext{
		UserID:   id.New(),
		Email:    "admin@example.com",
		Role:     "admin",
		BranchID: &branchID,
	}

	token, expiresAt, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, got.UserID)
	assert.Equal(t, actor.Email, got.Email)
	assert.Equal(t, actor.Role, got.Role)
	require.NotNil(t, got.BranchID)
	assert.Equal(t, branchID, *got.BranchID)
}

func TestTokenWithoutBranch(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	token, _, err := svc.GenerateAccessToken(&appctx.ActorContext{UserID: id.New(), Role: "customer"})
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, got.BranchID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken(&appctx.ActorContext{UserID: id.New(), Role: "admin"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken(&appctx.ActorContext{UserID: id.New(), Role: "admin"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

type stubUserRepo struct {
	byEmail map[string]*UserRecord
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*UserRecord, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return u, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, userID id.ID) (*UserRecord, error) {
	for _, u := range r.byEmail {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", userID.String())
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	repo := &stubUserRepo{byEmail: map[string]*UserRecord{
		"tech@example.com": {
			ID:           id.New(),
			Email:        "tech@example.com",
			PasswordHash: hash,
			Name:         "Sam Ortiz",
			Role:         "technician",
		},
	}}
	svc := NewService(repo, NewJWTService(DefaultJWTConfig("test-secret")))

	t.Run("valid credentials issue a token", func(t *testing.T) {
		pair, user, err := svc.Login(context.Background(), "tech@example.com", "correct horse")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Equal(t, "technician", user.Role)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, _, errPw := svc.Login(context.Background(), "tech@example.com", "wrong")
		_, _, errEmail := svc.Login(context.Background(), "nobody@example.com", "whatever")

		require.Error(t, errPw)
		require.Error(t, errEmail)
		assert.True(t, apperror.IsCode(errPw, apperror.CodeUnauthorized))
		assert.Equal(t, errPw.Error(), errEmail.Error())
	})
}
