package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"p9e.in/workorders/models"
	"p9e.in/workorders/repository"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevoked      = errors.New("session has been revoked")
)

// Session is the authenticated employee behind a request.
type Session struct {
	ID         string      `json:"sessionId"`
	EmployeeID uuid.UUID   `json:"employeeId"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

// Actor is the repository view of the session.
func (s *Session) Actor() repository.Actor {
	return repository.Actor{EmployeeID: s.EmployeeID, Role: s.Role}
}

// Claims are the custom payload in the JWT.
type Claims struct {
	EmployeeID string      `json:"employeeId"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	jwt.RegisteredClaims
}

// unexported type prevents collisions in context
type ctxKey int

const sessionKey ctxKey = iota

// Sessions issues and verifies bearer tokens. Logged-out token IDs are kept
// in a cache until the token would have expired anyway.
type Sessions struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache
	now     func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: cache.New(ttl, 10*time.Minute),
		now:     time.Now,
	}
}

// Issue signs a token for the employee.
func (s *Sessions) Issue(emp *models.Employee) (string, *Session, error) {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		EmployeeID: emp.ID,
		Email:      emp.Email,
		Name:       emp.FullName(),
		Role:       emp.Role,
		ExpiresAt:  now.Add(s.ttl).Truncate(time.Second),
	}
	claims := Claims{
		EmployeeID: emp.ID.String(),
		Email:      sess.Email,
		Name:       sess.Name,
		Role:       sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   emp.ID.String(),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, sess, nil
}

// Parse verifies a token and rebuilds its session.
func (s *Sessions) Parse(tokenStr string) (*Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.EmployeeID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, ErrRevoked
	}
	sess := &Session{
		ID:         claims.ID,
		EmployeeID: id,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       claims.Role,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// Revoke invalidates the session for the rest of its lifetime.
func (s *Sessions) Revoke(sess *Session) {
	if sess == nil || sess.ID == "" {
		return
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	s.revoked.Set(sess.ID, struct{}{}, ttl)
}

// RequireAuth validates the bearer token and stores the Session in ctx.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}
		scheme, tokenStr, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			writeError(w, "invalid auth header", http.StatusUnauthorized)
			return
		}
		sess, err := s.Parse(strings.TrimSpace(tokenStr))
		if err != nil {
			writeError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFrom pulls the Session out of ctx (or nil).
func SessionFrom(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok {
		return s
	}
	return nil
}
