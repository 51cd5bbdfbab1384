package token

import (
	"errors"
	"testing"
	"time"

	"github.com/launchlane/launchlane/internal/domain"
)

const testSecret = "test-signing-secret"

func testIdentity() Identity {
	return Identity{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      domain.RoleManager,
	}
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	m := NewManager(testSecret)
	expiry := time.Now().Add(time.Hour)

	tok, err := m.Issue(testIdentity(), expiry)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got := claims.Identity(); got != testIdentity() {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Unix() != expiry.Unix() {
		t.Fatalf("expiry not preserved: %v", claims.ExpiresAt)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := NewManager(testSecret)

	tok, err := m.Issue(testIdentity(), time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, err = m.Verify(tok)
	if err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expired token must match ErrExpired, got %v", err)
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expired token must still match ErrInvalid, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := NewManager(testSecret).Issue(testIdentity(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, err = NewManager("other-secret").Verify(tok)
	if err == nil {
		t.Fatalf("expected signature failure")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("signature failure must match ErrInvalid, got %v", err)
	}
	if errors.Is(err, ErrMalformed) {
		t.Fatalf("signature failure must not look malformed: %v", err)
	}
}

func TestVerifyMalformedInput(t *testing.T) {
	m := NewManager(testSecret)
	_, err := m.Verify("garbage")
	if err == nil {
		t.Fatalf("expected malformed input to fail")
	}
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if errors.Is(err, ErrInvalid) {
		t.Fatalf("malformed input propagates verbatim, must not wrap ErrInvalid: %v", err)
	}
}

func TestDecodeSkipsValidation(t *testing.T) {
	m := NewManager(testSecret)
	tok, err := m.Issue(testIdentity(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims := m.Decode(tok)
	if claims == nil {
		t.Fatalf("decode must read an expired but well-formed token")
	}
	if claims.Email != "ada@example.com" {
		t.Fatalf("unexpected email: %q", claims.Email)
	}

	foreign, err := NewManager("other-secret").Issue(testIdentity(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if m.Decode(foreign) == nil {
		t.Fatalf("decode ignores signatures and must still read the claims")
	}
}

func TestDecodeGarbageReturnsNil(t *testing.T) {
	if claims := NewManager(testSecret).Decode("not a token"); claims != nil {
		t.Fatalf("expected nil for unparsable input, got %+v", claims)
	}
}
