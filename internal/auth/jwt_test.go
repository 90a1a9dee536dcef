package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	token, err := GenerateToken("3f1c2a40-0000-0000-0000-000000000001", "ops@example.com", "transportes", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Email != "ops@example.com" || claims.OrgAlias != "transportes" || claims.Rol != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := ParseToken("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestJWTMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := JWTMiddleware(next)

	t.Run("health bypasses auth", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing token rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/process-text", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token passes claims", func(t *testing.T) {
		token, err := GenerateToken("u1", "ops@example.com", "transportes", "user")
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		req := httptest.NewRequest("POST", "/api/process-text", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotClaims == nil || gotClaims.OrgAlias != "transportes" {
			t.Errorf("claims in context = %+v", gotClaims)
		}
	})
}
