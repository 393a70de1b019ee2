// Package apikey verifies the keys Expert Advisors present when
// pushing trade batches. Keys are issued out of band; this service
// only ever sees the plain key on a request and compares its SHA-256
// hash against the stored one.
package apikey

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Prefix identifies QuantaView keys in logs and display strings.
const Prefix = "qv_"

// keyLength is Prefix plus 32 random characters.
const keyLength = len(Prefix) + 32

// Hash returns the hex SHA-256 digest of a key, the only form that
// is ever persisted.
func Hash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Verify compares a presented key against a stored hash in constant
// time.
func Verify(key, storedHash string) bool {
	computed := Hash(key)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// ValidFormat reports whether a string is even shaped like one of our
// keys, letting handlers reject junk before touching the database.
func ValidFormat(key string) bool {
	return strings.HasPrefix(key, Prefix) && len(key) == keyLength
}

// DisplayPrefix returns the short form used in listings, never enough
// of the key to be usable.
func DisplayPrefix(key string) string {
	if len(key) < 8 {
		return key
	}
	return key[:8] + "..."
}
