package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/core"
	"github.com/printnet/printnet/internal/db"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const minPasswordLength = 6

type Claims struct {
	jwt.RegisteredClaims
}

// Service issues authentication tokens and lazily materializes user profiles
// from authenticated identities.
type Service struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
}

func NewService(database *sql.DB, cfg *config.AuthConfig) *Service {
	return &Service{
		db:       database,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
	}
}

// Register creates an auth record and returns it with a signed token.
func (s *Service) Register(ctx context.Context, email, password string, nickname *string) (*db.Auth, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", core.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, minPasswordLength)
	}

	if _, err := db.Users.GetAuthByEmail(ctx, s.db, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: %v", core.ErrInternal, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", core.ErrInternal, err)
	}

	auth := &db.Auth{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     nickname,
	}
	if err := db.Users.CreateAuth(ctx, s.db, auth); err != nil {
		return nil, "", fmt.Errorf("%w: %v", core.ErrInternal, err)
	}

	token, err := s.GenerateToken(auth.ID)
	if err != nil {
		return nil, "", err
	}
	return auth, token, nil
}

// Login verifies credentials and returns the auth record with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*db.Auth, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", core.ErrValidation)
	}

	auth, err := db.Users.GetAuthByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%w: %v", core.ErrInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(auth.ID)
	if err != nil {
		return nil, "", err
	}
	return auth, token, nil
}

// ResolveOrCreateUser returns the durable user profile for an authenticated
// identity, creating it on first sight. A concurrent first sight is absorbed
// by the upsert: both callers end up reading the same row.
func (s *Service) ResolveOrCreateUser(ctx context.Context, authID string) (*db.User, error) {
	if !core.ValidUUID(authID) {
		return nil, fmt.Errorf("%w: auth id must be a valid UUID", core.ErrValidation)
	}

	user, err := db.Users.GetByAuthID(ctx, s.db, authID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", core.ErrInternal, err)
	}

	auth, err := db.Users.GetAuthByID(ctx, s.db, authID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: auth identity %s", core.ErrNotFound, authID)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInternal, err)
	}

	nickname := auth.Email
	if auth.Nickname != nil && *auth.Nickname != "" {
		nickname = *auth.Nickname
	}

	if err := db.Users.Upsert(ctx, s.db, &db.User{
		ID:       uuid.NewString(),
		AuthID:   authID,
		Nickname: nickname,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInternal, err)
	}

	user, err = db.Users.GetByAuthID(ctx, s.db, authID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInternal, err)
	}
	return user, nil
}

// GetUser returns a user profile by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*db.User, error) {
	if !core.ValidUUID(userID) {
		return nil, fmt.Errorf("%w: user id must be a valid UUID", core.ErrValidation)
	}
	user, err := db.Users.GetByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", core.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInternal, err)
	}
	return user, nil
}

func (s *Service) GenerateToken(authID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   authID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "printnet",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInternal, err)
	}
	return signed, nil
}

// ValidateToken returns the auth id carried by a signed token.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
