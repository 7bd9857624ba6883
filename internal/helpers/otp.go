package helpers

import (
	"crypto/rand"
	"math/big"
	"strings"

	"riskgate/internal/configuration"
)

// GenerateOTP returns a fixed-length numeric one-time code. Codes are random
// per issuance and live only in the Arbiter's cache, so there is no shared
// secret to derive them from.
func GenerateOTP() (string, error) {
	var sb strings.Builder
	for i := 0; i < configuration.OTPDigits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}
