package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewVerificationCode returns a random six-digit code in the range
// 100000-999999, drawn from crypto/rand so codes are not guessable.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
