// Package service declares the stateless capabilities the use cases depend on.
package service

// PasswordHasher turns account secrets into stored hashes and verifies login attempts against them.
// Verify must take the same time whether or not the secret matches.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password produces hash. A malformed hash never verifies.
	Verify(password, hash string) bool
}
