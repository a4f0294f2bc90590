package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// DefaultTokenBytes is the entropy of a generated webhook token.
const DefaultTokenBytes = 32

// GenerateToken returns n random bytes, hex encoded, for use as a webhook
// shared secret.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("token size must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// TokensEqual reports whether got equals want byte for byte. The comparison
// time does not depend on where the first difference is.
func TokensEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// IsHeaderText reports whether v consists only of visible ASCII, space and
// horizontal tab, the bytes a header value can carry as plain text.
func IsHeaderText(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\t' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
