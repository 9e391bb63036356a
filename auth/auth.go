// Package auth is the identity provider: credential-based sign-up/sign-in
// backed by the users collection, with JWT session tokens.
package auth

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"donutshop/faults"
	"donutshop/models"
	"donutshop/store"
	"donutshop/utils"
)

type Service struct {
	store     store.Store
	jwtSecret []byte
	expiry    time.Duration

	// Revoked tokens, kept until they would have expired anyway.
	revokedMu sync.RWMutex
	revoked   map[string]time.Time
}

func NewService(st store.Store, jwtSecret string, expiry time.Duration) *Service {
	return &Service{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		expiry:    expiry,
		revoked:   make(map[string]time.Time),
	}
}

// userRecord is the stored shape: the public user plus the password hash,
// which never leaves this package.
type userRecord struct {
	models.User
	PasswordHash string `json:"passwordHash"`
}

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SignUp creates the user and signs them in. Email, name and role are
// identity fields and immutable afterwards.
func (s *Service) SignUp(ctx context.Context, email, password, name string, role models.Role) (models.User, string, error) {
	const op = "auth.signUp"
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" || strings.TrimSpace(name) == "" {
		return models.User{}, "", faults.New(faults.Validation, op, "email, password and name are required")
	}
	if role != models.RoleBuyer && role != models.RoleSeller {
		return models.User{}, "", faults.New(faults.Validation, op, "role must be buyer or seller")
	}

	existing, err := s.store.Query(ctx, store.Users, "email", email)
	if err != nil {
		return models.User{}, "", err
	}
	if len(existing) > 0 {
		return models.User{}, "", faults.New(faults.Validation, op, "email is already registered")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, "", faults.Wrap(faults.Transport, op, err)
	}

	rec := userRecord{
		User: models.User{
			ID:    uuid.New().String(),
			Email: email,
			Name:  name,
			Role:  role,
		},
		PasswordHash: hash,
	}
	if err := s.store.Set(ctx, store.Users, rec.ID, rec); err != nil {
		return models.User{}, "", err
	}

	token, err := s.issueToken(rec.User)
	if err != nil {
		return models.User{}, "", err
	}
	return rec.User, token, nil
}

// SignIn checks the credentials and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (models.User, string, error) {
	const op = "auth.signIn"
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.User{}, "", faults.New(faults.Validation, op, "email and password are required")
	}

	docs, err := s.store.Query(ctx, store.Users, "email", email)
	if err != nil {
		return models.User{}, "", err
	}
	if len(docs) == 0 {
		return models.User{}, "", faults.New(faults.Validation, op, "invalid email or password")
	}

	var rec userRecord
	if err := json.Unmarshal(docs[0], &rec); err != nil {
		return models.User{}, "", faults.Wrap(faults.Transport, op, err)
	}
	if err := utils.CheckPassword(rec.PasswordHash, password); err != nil {
		return models.User{}, "", faults.New(faults.Validation, op, "invalid email or password")
	}

	token, err := s.issueToken(rec.User)
	if err != nil {
		return models.User{}, "", err
	}
	return rec.User, token, nil
}

// SignOut revokes the token for the remainder of its lifetime.
func (s *Service) SignOut(token string) {
	s.revokedMu.Lock()
	s.revoked[token] = time.Now().Add(s.expiry)
	s.revokedMu.Unlock()
}

// CurrentSession resolves a token to its user, or NotFound when no valid
// session exists.
func (s *Service) CurrentSession(ctx context.Context, token string) (models.User, error) {
	const op = "auth.currentSession"
	if token == "" || s.isRevoked(token) {
		return models.User{}, faults.New(faults.NotFound, op, "no active session")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, faults.New(faults.Validation, op, "unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return models.User{}, faults.New(faults.NotFound, op, "no active session")
	}

	var rec userRecord
	if err := s.store.Get(ctx, store.Users, claims.UserID, &rec); err != nil {
		return models.User{}, err
	}
	return rec.User, nil
}

func (s *Service) issueToken(user models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "donutshop",
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", faults.Wrap(faults.Transport, "auth.issueToken", err)
	}
	return signed, nil
}

func (s *Service) isRevoked(token string) bool {
	s.revokedMu.RLock()
	until, ok := s.revoked[token]
	s.revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(until) {
		s.revokedMu.Lock()
		delete(s.revoked, token)
		s.revokedMu.Unlock()
		return false
	}
	return true
}
