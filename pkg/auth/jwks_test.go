package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestValidateToken_VerificationDisabled(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient returned error: %v", err)
	}
	defer client.Close()

	// Signature is not checked in development mode, so any signing key works.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "https://issuer.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "analyst@example.com",
		Roles: []string{"viewer"},
	})
	signed, err := token.SignedString([]byte("local-dev-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	claims, err := client.ValidateToken(signed)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want user-123", claims.Subject)
	}
	if claims.Email != "analyst@example.com" {
		t.Errorf("email = %q, want analyst@example.com", claims.Email)
	}
}

func TestValidateToken_MalformedToken(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient returned error: %v", err)
	}
	defer client.Close()

	if _, err := client.ValidateToken("not.a.jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
