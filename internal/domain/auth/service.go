package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ventra/internal/core/apperror"
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
)

// UserRecord is a stored account with credentials and role assignment.
type UserRecord struct {
	ID           id.ID     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	BranchID     *id.ID    `db:"branch_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// Repository provides access to user accounts.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
	GetByID(ctx context.Context, userID id.ID) (*UserRecord, error)
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Service handles credential verification and token issuance.
type Service struct {
	users Repository
	jwt   *JWTService
}

// NewService creates an auth service.
func NewService(users Repository, jwtService *JWTService) *Service {
	return &Service{users: users, jwt: jwtService}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *UserRecord, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Deliberately indistinguishable from a wrong password.
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	actor := &appctx.ActorContext{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		BranchID: user.BranchID,
	}
	token, expiresAt, err := s.jwt.GenerateAccessToken(actor)
	if err != nil {
		return nil, nil, apperror.NewInternal(err)
	}

	return &TokenPair{AccessToken: token, ExpiresAt: expiresAt}, user, nil
}

// GetUser loads one account by id.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*UserRecord, error) {
	return s.users.GetByID(ctx, userID)
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
