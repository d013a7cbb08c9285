package token

import (
	"crypto/rand"
	"errors"
	"simplefilehost/internal/core/port"
)

// SessionLength is the length of the token that gates a session url
const SessionLength = 24

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// largest multiple of len(alphabet) below 256, bytes above it are rejected
const acceptBelow = 256 - 256%len(alphabet)

var ErrInvalidLength = errors.New("token length must be positive")

type generator struct{}

// NewGenerator returns a crypto/rand backed token generator
func NewGenerator() port.TokenGenerator {
	return generator{}
}

// Token returns n alphanumeric characters drawn without modulo bias
func (generator) Token(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= acceptBelow {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
