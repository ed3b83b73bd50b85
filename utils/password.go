package utils

import "golang.org/x/crypto/bcrypt"

// hashCost is the bcrypt work factor applied to stored credentials.
const hashCost = bcrypt.DefaultCost

// HashPassword derives a bcrypt hash suitable for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
