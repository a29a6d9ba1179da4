package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func newTestKeyPair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, &key.PublicKey
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRequireRoleAcceptsValidToken(t *testing.T) {
	private, public := newTestKeyPair(t)
	m := NewAuthMiddleware(public, zap.NewNop())

	var gotUserID, gotRole string
	handler := m.RequireRole([]string{"mentor"}, func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
		gotRole = Role(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	token := signToken(t, private, jwt.MapClaims{
		"sub":  "m-1",
		"role": "mentor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/follow-ups/upcoming", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "m-1" || gotRole != "mentor" {
		t.Errorf("context = (%q, %q), want (m-1, mentor)", gotUserID, gotRole)
	}
}

func TestRequireRoleRejectsWrongRole(t *testing.T) {
	private, public := newTestKeyPair(t)
	m := NewAuthMiddleware(public, zap.NewNop())

	handler := m.RequireRole([]string{"pastor", "admin"}, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	})

	token := signToken(t, private, jwt.MapClaims{
		"sub":  "m-1",
		"role": "mentor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/stats/mentors", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRoleRejectsBadTokens(t *testing.T) {
	private, public := newTestKeyPair(t)
	otherKey, _ := newTestKeyPair(t)
	m := NewAuthMiddleware(public, zap.NewNop())

	handler := m.RequireRole([]string{"mentor"}, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	})

	expired := signToken(t, private, jwt.MapClaims{
		"sub":  "m-1",
		"role": "mentor",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, otherKey, jwt.MapClaims{
		"sub":  "m-1",
		"role": "mentor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	noSub := signToken(t, private, jwt.MapClaims{
		"role": "mentor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + wrongKey},
		{"missing subject", "Bearer " + noSub},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
