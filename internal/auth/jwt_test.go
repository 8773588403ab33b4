package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	token, expiresAt, err := GenerateToken("12345", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expected a future expiry")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		t.Fatal("expected valid claims")
	}
	if claims.Subject != "12345" {
		t.Fatalf("expected subject 12345, got %s", claims.Subject)
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	if _, _, err := GenerateToken("12345", "", time.Hour); err == nil {
		t.Fatal("expected an error for an empty secret")
	}
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	token, _, err := GenerateToken("12345", "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	_, err = jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte("secret-b"), nil
	})
	if err == nil {
		t.Fatal("expected verification to fail with the wrong secret")
	}
}
