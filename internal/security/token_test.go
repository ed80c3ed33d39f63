package security

import "testing"

func TestNewResetTokenMatchesStoredDigest(t *testing.T) {
	raw, digest, err := NewResetToken()
	if err != nil {
		t.Fatalf("new reset token: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("expected 32 random bytes hex encoded, got %d chars", len(raw))
	}
	if HashResetToken(raw) != digest {
		t.Fatal("expected re-hashing the raw token to reproduce the digest")
	}
	if raw == digest {
		t.Fatal("raw token must never equal the stored digest")
	}
}

func TestResetTokensAreUnique(t *testing.T) {
	a, _, err := NewResetToken()
	if err != nil {
		t.Fatalf("new reset token: %v", err)
	}
	b, _, err := NewResetToken()
	if err != nil {
		t.Fatalf("new reset token: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
}

func TestHashRefreshTokenIsPepperKeyed(t *testing.T) {
	h1 := HashRefreshToken("token", "pepper-a")
	h2 := HashRefreshToken("token", "pepper-b")
	if h1 == h2 {
		t.Fatal("expected different peppers to yield different hashes")
	}
	if h1 != HashRefreshToken("token", "pepper-a") {
		t.Fatal("expected hashing to be deterministic for a fixed pepper")
	}
}
