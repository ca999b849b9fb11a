package auth_test

import (
	"testing"
	"time"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
)

func TestTokenRoundtrip(t *testing.T) {
	svc := auth.NewAuthService("test-secret", time.Hour)

	tok, err := svc.IssueJWT("u1", "student", true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "u1" || claims.Role != "student" || !claims.EmailVerified {
		t.Fatalf("claims %+v", claims)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	tok, err := auth.NewAuthService("secret-a", time.Hour).IssueJWT("u1", "student", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := auth.NewAuthService("secret-b", time.Hour).Parse(tok); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}
