package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex SHA-256 of a refresh token.
// bcrypt cannot be used here: it only reads the first 72 bytes and signed JWTs share a long common prefix.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual compares the digest of token with storedHash in constant time.
func RefreshTokenHashEqual(token, storedHash string) bool {
	if storedHash == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(HashRefreshToken(token)), []byte(storedHash)) == 1
}
