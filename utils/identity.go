package utils

import (
	"strings"
	"unicode"
)

// NormalizeEmail canonicalizes an email address for use as an identity key.
// It does not validate the address; that is the caller's job.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// DeriveDisplayName returns a human display name for a normalized email.
// A non-empty provided name wins verbatim (trimmed). Otherwise the local
// part of the address is split on runs of '.', '_' and '-' and each segment
// gets its first character upper-cased.
func DeriveDisplayName(normalizedEmail, providedName string) string {
	if name := strings.TrimSpace(providedName); name != "" {
		return name
	}

	at := strings.Index(normalizedEmail, "@")
	if at < 0 {
		return ""
	}
	localPart := normalizedEmail[:at]

	segments := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})

	for i, segment := range segments {
		runes := []rune(segment)
		runes[0] = unicode.ToUpper(runes[0])
		segments[i] = string(runes)
	}

	return strings.Join(segments, " ")
}
