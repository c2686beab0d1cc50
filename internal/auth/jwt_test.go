package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	tok, err := tokens.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	id, err := tokens.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if id != "user-42" {
		t.Fatalf("subject = %q", id)
	}
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	tok, _ := NewTokens("secret-a", time.Hour).GenerateToken("u1")
	if _, err := NewTokens("secret-b", time.Hour).ValidateToken(tok); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestTokenExpires(t *testing.T) {
	tokens := NewTokens("s", time.Minute)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }
	tok, err := tokens.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := tokens.ValidateToken(tok); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := NewTokens("s", 0).ValidateToken("not.a.token"); err == nil {
		t.Fatalf("garbage accepted")
	}
}
