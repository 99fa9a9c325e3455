// Package service holds the domain services sitting between the HTTP
// handlers and the repositories.  Services signal expected failures through
// typed sentinel errors; handlers map each error kind to exactly one HTTP
// status.  Unexpected failures propagate as-is and surface as 500s.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/catalogify/product-catalog-api/internal/auth"
	"github.com/catalogify/product-catalog-api/internal/repository"
)

// UserStore is the persistence surface the authentication service depends
// on.  *repository.UserRepo satisfies it; tests substitute an in-memory
// fake.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, firstName, lastName string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	GetByRefreshTokenHash(ctx context.Context, tokenHash string) (repository.User, error)
	SetRefreshToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ClearRefreshToken(ctx context.Context, userID uint64) error
}

var (
	// ErrEmailTaken signals a registration with an already-used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must never learn which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken covers unknown, expired and rotated-away
	// refresh tokens alike.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Profile is the public view of a user, safe to return to clients.
type Profile struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is an issued access/refresh token pair bound to one user.
// ExpiresAt is the access token expiry; the refresh token's own expiry is
// tracked server-side only.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         Profile
}

// AuthService implements registration, login, refresh and revocation.  Each
// user has at most one active session: issuing a new token pair overwrites
// the stored refresh-token hash, implicitly invalidating the previous one.
type AuthService struct {
	users      UserStore
	issuer     *auth.Issuer
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users UserStore, issuer *auth.Issuer, bcryptCost int) *AuthService {
	return &AuthService{users: users, issuer: issuer, bcryptCost: bcryptCost, now: time.Now}
}

// Register creates a new user and logs them in.  Email uniqueness is left
// to the store's unique index: a duplicate insert maps to ErrEmailTaken, so
// concurrent registrations cannot race past an application-level check.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (Session, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, err
	}
	uid, err := s.users.Create(ctx, email, hash, firstName, lastName)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, u)
}

// Login verifies credentials and issues a fresh token pair.  Any previously
// stored refresh token is overwritten.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueSession(ctx, u)
}

// Refresh exchanges a valid refresh token for a new token pair.  The stored
// hash is replaced in the process, so the presented token is single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	u, err := s.users.GetByRefreshTokenHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrInvalidRefreshToken
		}
		return Session{}, err
	}
	if !u.RefreshTokenExpiresAt.Valid || !s.now().UTC().Before(u.RefreshTokenExpiresAt.Time) {
		return Session{}, ErrInvalidRefreshToken
	}
	return s.issueSession(ctx, u)
}

// Revoke ends the session owning the given refresh token by clearing both
// refresh-token fields.  Unknown tokens are a no-op: revocation is
// idempotent.
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) error {
	u, err := s.users.GetByRefreshTokenHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	return s.users.ClearRefreshToken(ctx, u.ID)
}

// issueSession mints an access/refresh pair for u and persists the refresh
// token hash + expiry on the user row.
func (s *AuthService) issueSession(ctx context.Context, u repository.User) (Session, error) {
	access, err := s.issuer.AccessToken(auth.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.issuer.RefreshToken()
	if err != nil {
		return Session{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, auth.HashRefreshToken(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		ExpiresAt:    access.Exp,
		User: Profile{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			CreatedAt: u.CreatedAt,
		},
	}, nil
}
