package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

const (
	codeMin  = 100000
	codeSpan = 900000

	defaultCodeAttempts = 10
)

var ErrCodeSpaceExhausted = errors.New("could not find a free verification code")

// CodeGenerator produces 6 digit verification codes
type CodeGenerator struct {
	// Attempts bounds how many collisions are tolerated. Zero means 10.
	Attempts int
}

// Generate returns a code in 100000..999999 for which exists reports false.
// A colliding code is thrown away and a new one drawn.
func (g CodeGenerator) Generate(exists func(code string) (bool, error)) (string, error) {
	attempts := g.Attempts
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}

	for range attempts {
		n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
		if err != nil {
			return "", err
		}

		code := strconv.FormatInt(n.Int64()+codeMin, 10)

		taken, err := exists(code)
		if err != nil {
			return "", err
		}

		if !taken {
			return code, nil
		}
	}

	return "", ErrCodeSpaceExhausted
}
