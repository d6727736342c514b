package oauth2

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

type CodeChallengeMethod string

const (
	CodeChallengeMethodS256 CodeChallengeMethod = "S256"
)

// Error is the standard OAuth2 error response, as delivered in the
// callback query or a token endpoint error body.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// GenerateCodeVerifier returns 32 random bytes encoded as base64url
// without padding. The same generator serves for the anti-forgery
// state value.
func GenerateCodeVerifier() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("random number generation failed")
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func S256ChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
