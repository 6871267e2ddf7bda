package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetCodeTTL is the validity window for a generated reset code.
const ResetCodeTTL = 15 * time.Minute

// GenerateResetCode returns an 8-character lowercase hexadecimal token drawn
// from 4 bytes of a cryptographically secure random source. Uniqueness is not
// guaranteed, only astronomically likely; there is no collision retry.
func GenerateResetCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
