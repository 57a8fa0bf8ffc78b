// Package auth identifies API callers. Group routes carry an HS256 bearer
// token whose user_id claim names the requester; upload routes carry a
// shared secret in the X-API-KEY header.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptySecret  = errors.New("auth: signing secret is empty")
)

// APIKeyHeader carries the upload secret.
const APIKeyHeader = "X-API-KEY"

/*─────────────────────────────────────────────────────────────────────────────*
| Tokens                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Claims is the bearer token payload.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a manager for secret. A ttl of zero issues tokens
// without an expiry.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateToken issues a token for userID.
func (tm *TokenManager) GenerateToken(userID string) (string, error) {
	now := tm.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if tm.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tm.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// ParseToken verifies tokenString and returns its claims. A token without a
// user_id is invalid.
func (tm *TokenManager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-user helpers                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user id and a "found?" flag.
func CurrentUser(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(currentUserKey).(string)
	return id, ok && id != ""
}

// WithTestUser injects userID as RequireBearer would. Used by handler tests.
func WithTestUser(r *http.Request, userID string) *http.Request {
	return withUser(r, userID)
}

func withUser(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, userID)
	return r.WithContext(ctx)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireBearer rejects requests without a valid bearer token (401) and
// places the token's user id in the request context.
func RequireBearer(tm *TokenManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			claims, err := tm.ParseToken(raw)
			if err != nil {
				logger.Debug("bearer token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				unauthorized(w, err.Error())
				return
			}
			next.ServeHTTP(w, withUser(r, claims.UserID))
		})
	}
}

// RequireAPIKey rejects requests whose X-API-KEY header does not equal secret.
// An empty secret rejects everything. onReject, when non-nil, is told about
// each rejection.
func RequireAPIKey(secret string, onReject func(r *http.Request)) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(APIKeyHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				if onReject != nil {
					onReject(r)
				}
				unauthorized(w, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
