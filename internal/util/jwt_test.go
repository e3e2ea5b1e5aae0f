package util

import (
	"testing"
	"time"
)

func TestAdminJWTRoundTrip(t *testing.T) {
	secret := "test-secret-test-secret-test-secret"

	token, err := GenerateAdminJWT("student_council", secret, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseAdminJWT(token, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Username != "student_council" {
		t.Fatalf("unexpected username: %s", claims.Username)
	}
}

func TestAdminJWTWrongSecret(t *testing.T) {
	token, err := GenerateAdminJWT("student_council", "secret-a-secret-a-secret-a-secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ParseAdminJWT(token, "secret-b-secret-b-secret-b-secret"); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestAdminJWTExpired(t *testing.T) {
	secret := "test-secret-test-secret-test-secret"

	token, err := GenerateAdminJWT("student_council", secret, -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ParseAdminJWT(token, secret); err == nil {
		t.Fatal("expected expired token to fail")
	}
}
