package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentifier returns a stable, one-way correlation token for an
// identifier (email, session token) so telemetry sinks never see raw PII.
// An empty value hashes to the empty string. The hash is case-sensitive;
// normalization must happen before hashing.
func HashIdentifier(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
