package utils

import (
	"regexp"
	"testing"
)

func TestHashIdentifier(t *testing.T) {
	if got := HashIdentifier(""); got != "" {
		t.Errorf("HashIdentifier(\"\") = %q, want empty", got)
	}

	hash := HashIdentifier("a@b.com")
	if len(hash) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(hash))
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(hash) {
		t.Errorf("digest is not lowercase hex: %q", hash)
	}

	// Deterministic across calls
	if HashIdentifier("a@b.com") != hash {
		t.Error("HashIdentifier is not stable across calls")
	}

	// Case-sensitive: normalization happens upstream
	if HashIdentifier("A@B.com") == hash {
		t.Error("HashIdentifier should be case-sensitive")
	}

	if HashIdentifier("other@b.com") == hash {
		t.Error("different inputs must not collide")
	}
}
