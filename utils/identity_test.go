package utils

import (
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Jane.Doe@Example.COM", "jane.doe@example.com"},
		{"trims whitespace", "  user@example.com \n", "user@example.com"},
		{"already normalized", "user@example.com", "user@example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEmail(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailIdempotent(t *testing.T) {
	inputs := []string{"Jane.Doe@Example.COM", "  MIXED@case.io ", "", "plain"}
	for _, in := range inputs {
		once := NormalizeEmail(in)
		twice := NormalizeEmail(once)
		if once != twice {
			t.Errorf("NormalizeEmail not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestDeriveDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		provided string
		want     string
	}{
		{"dot separated", "jane.doe@example.com", "", "Jane Doe"},
		{"mixed separators", "bob_the-builder@x.com", "", "Bob The Builder"},
		{"provided name wins", "anything@x.com", "  Custom Name  ", "Custom Name"},
		{"single segment", "alice@x.com", "", "Alice"},
		{"no at sign", "not-an-email", "", ""},
		{"empty local runs", "..a__b..@x.com", "", "A B"},
		{"only separators", "...@x.com", "", ""},
		{"rest of segment kept as-is", "mcDonald@x.com", "", "McDonald"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveDisplayName(tt.email, tt.provided)
			if got != tt.want {
				t.Errorf("DeriveDisplayName(%q, %q) = %q, want %q", tt.email, tt.provided, got, tt.want)
			}
		})
	}
}
