package passwords

import (
	"crypto/subtle"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// IsHashed reports whether stored looks like a bcrypt hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// Check compares a candidate password with the stored value. Records written
// before hashing was introduced hold plaintext; those still match, and legacy
// is true so the caller can flag them.
func Check(stored, candidate string) (ok, legacy bool) {
	if stored == "" || candidate == "" {
		return false, false
	}
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil, false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, true
}

var dummy = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("learnhub-no-such-user"), bcryptCost)
	return h
})

// Reject spends the same bcrypt work as Check on a real account and always
// returns false. Login uses it for unknown emails.
func Reject(candidate string) bool {
	_ = bcrypt.CompareHashAndPassword(dummy(), []byte(candidate))
	return false
}
