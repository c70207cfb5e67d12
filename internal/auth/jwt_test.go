package auth_test

import (
	"testing"
	"time"

	"github.com/jonesrussell/storefront-admin/internal/auth"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	mgr := auth.NewTokenManager("test-secret-key-32-chars-minimum", 12*time.Hour)

	token, err := mgr.GenerateToken("deploy-script")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Sub != "deploy-script" {
		t.Errorf("claims.Sub = %q, want deploy-script", claims.Sub)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-one", time.Hour)
	verifier := auth.NewTokenManager("secret-two", time.Hour)

	token, err := issuer.GenerateToken("deploy-script")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("ValidateToken() with wrong secret expected error, got nil")
	}
}

func TestTokenManager_Expired(t *testing.T) {
	mgr := auth.NewTokenManager("test-secret", -time.Hour)

	token, err := mgr.GenerateToken("deploy-script")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := mgr.ValidateToken(token); err == nil {
		t.Error("ValidateToken() for expired token expected error, got nil")
	}
}

func TestTokenManager_Garbage(t *testing.T) {
	mgr := auth.NewTokenManager("test-secret", time.Hour)
	if _, err := mgr.ValidateToken("not-a-jwt"); err == nil {
		t.Error("ValidateToken() for garbage input expected error, got nil")
	}
}
