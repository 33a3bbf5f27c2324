package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a zero-padded numeric one-time code with the given
// number of digits, drawn uniformly from [0, 10^digits).
func GenerateOTP(digits int) (string, error) {
	if digits <= 0 || digits > 10 {
		return "", fmt.Errorf("otp digits must be between 1 and 10, got %d", digits)
	}

	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
