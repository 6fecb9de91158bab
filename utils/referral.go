package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// NewReferralCode builds a code from the first three letters of name
// (padded with X) and a random suffix of digits digits, e.g. ARJ4821.
func NewReferralCode(name string, digits int) (string, error) {
	if digits < 1 || digits > 12 {
		return "", fmt.Errorf("referral code suffix must have 1 to 12 digits, got %d", digits)
	}
	var prefix strings.Builder
	for _, r := range strings.ToUpper(name) {
		if prefix.Len() == 3 {
			break
		}
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			prefix.WriteRune(r)
		}
	}
	for prefix.Len() < 3 {
		prefix.WriteByte('X')
	}

	lo := int64(1)
	for i := 1; i < digits; i++ {
		lo *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9*lo))
	if err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	return fmt.Sprintf("%s%d", prefix.String(), lo+n.Int64()), nil
}

func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
