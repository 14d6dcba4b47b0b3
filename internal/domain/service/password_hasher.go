// Package service defines interfaces for stateless domain logic.
package service

// PasswordHasher abstracts the one-way password hashing algorithm.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a hash in constant time.
	Check(password, hash string) bool
}
