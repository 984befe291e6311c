package passport

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewToken returns 32 random bytes encoded as unpadded base64url.
func NewToken() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("passport: unable to generate session token, cause %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}
