package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is the minimal hashing interface (abstract so the algorithm
// can move to argon2 without touching callers).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Compare(hash, pw string) bool
}

// BcryptHasher hashes with bcrypt. Compare is constant time with respect to
// the digest content.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = 12
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Compare(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
