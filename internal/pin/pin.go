// Package pin hashes and verifies transaction PINs. Hashing always happens
// here on the engine side; a pre-hashed value from a caller is never accepted.
package pin

import "golang.org/x/crypto/bcrypt"

func Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func Check(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
