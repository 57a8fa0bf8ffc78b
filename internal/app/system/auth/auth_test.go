package auth_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/reelhub/internal/app/system/auth"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func newManager(t *testing.T, ttl time.Duration) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret", ttl)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tm
}

// echoUser writes the context user id so tests can see what the middleware set.
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.CurrentUser(r)
		_, _ = w.Write([]byte(id))
	})
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	if _, err := auth.NewTokenManager("", time.Hour); !errors.Is(err, auth.ErrEmptySecret) {
		t.Errorf("expected ErrEmptySecret, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := newManager(t, time.Hour)

	tok, err := tm.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := tm.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", claims.UserID)
	}
	if claims.ExpiresAt == nil {
		t.Error("expected an expiry with a positive ttl")
	}
}

func TestParseToken_Rejects(t *testing.T) {
	tm := newManager(t, time.Hour)
	other := func() string {
		o, _ := auth.NewTokenManager("another-secret", time.Hour)
		tok, _ := o.GenerateToken("u1")
		return tok
	}()
	noUser := func() string {
		tok, _ := tm.GenerateToken("")
		return tok
	}()
	expired := func() string {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
			UserID: "u1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}).SignedString([]byte("test-secret"))
		return tok
	}()
	unsigned := func() string {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: "u1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		return tok
	}()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", auth.ErrInvalidToken},
		{"wrong secret", other, auth.ErrInvalidToken},
		{"no user id", noUser, auth.ErrInvalidToken},
		{"alg none", unsigned, auth.ErrInvalidToken},
		{"expired", expired, auth.ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.ParseToken(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("ParseToken: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRequireBearer_ValidToken(t *testing.T) {
	tm := newManager(t, time.Hour)
	tok, _ := tm.GenerateToken("u42")

	req := httptest.NewRequest("GET", "/groups/mine", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()

	auth.RequireBearer(tm, zap.NewNop())(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "u42" {
		t.Errorf("context user = %q, want u42", rec.Body.String())
	}
}

func TestRequireBearer_Rejects(t *testing.T) {
	tm := newManager(t, time.Hour)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"bad token", "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/groups/mine", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			auth.RequireBearer(tm, zap.NewNop())(next).ServeHTTP(rec, req)

			if called {
				t.Error("next handler must not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected an error message in the body")
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		header   string
		wantCode int
	}{
		{"match", "s3cret", "s3cret", http.StatusOK},
		{"mismatch", "s3cret", "wrong", http.StatusUnauthorized},
		{"missing", "s3cret", "", http.StatusUnauthorized},
		{"prefix only", "s3cret", "s3c", http.StatusUnauthorized},
		{"empty secret rejects all", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/upload-reel", nil)
			if tt.header != "" {
				req.Header.Set(auth.APIKeyHeader, tt.header)
			}
			rec := httptest.NewRecorder()

			rejected := 0
			mw := auth.RequireAPIKey(tt.secret, func(*http.Request) { rejected++ })
			mw(echoUser()).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if wantRejected := tt.wantCode != http.StatusOK; wantRejected != (rejected == 1) {
				t.Errorf("onReject calls = %d", rejected)
			}
		})
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	id, ok := auth.CurrentUser(req)

	if ok {
		t.Error("expected ok to be false when no user in context")
	}
	if id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestCurrentUser_WithUser(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), "u1")

	id, ok := auth.CurrentUser(req)

	if !ok {
		t.Error("expected ok to be true when user in context")
	}
	if id != "u1" {
		t.Errorf("expected id u1, got %q", id)
	}
}
