// Package demo provides the one-click demo mode: a locally minted,
// signed token stands in for a platform credential so the app can be
// shown without a real TikTok account.
package demo

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/segmentio/ksuid"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok"
)

const tokenLifetime = time.Hour

type Service struct {
	signKey   jwk.Key
	verifyKey jwk.Key
}

// NewService generates a fresh signing key per process; demo tokens do
// not survive a restart, which is fine for their purpose.
func NewService() (*Service, error) {
	rawKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate demo signing key: %w", err)
	}
	signKey, err := jwk.FromRaw(rawKey)
	if err != nil {
		return nil, fmt.Errorf("wrap demo signing key: %w", err)
	}
	verifyKey, err := signKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive demo verify key: %w", err)
	}
	return &Service{signKey: signKey, verifyKey: verifyKey}, nil
}

// Mint creates a demo credential and the profile it represents. The
// returned lifetime feeds the normal token persistence path.
func (s *Service) Mint() (string, *tiktok.UserProfile, int, error) {
	user := &tiktok.UserProfile{
		ID:    fmt.Sprintf("demo_%s", ksuid.New().String()),
		Name:  "Demo TikTok User",
		Email: "demo@tiktok.com",
	}

	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(user.ID).
		IssuedAt(now).
		Expiration(now.Add(tokenLifetime)).
		Claim("name", user.Name).
		Claim("email", user.Email).
		Build()
	if err != nil {
		return "", nil, 0, fmt.Errorf("build demo token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256, s.signKey))
	if err != nil {
		return "", nil, 0, fmt.Errorf("sign demo token: %w", err)
	}

	return string(signed), user, int(tokenLifetime.Seconds()), nil
}

// Verify parses a stored credential as a demo token and recovers its
// profile. Fails for real platform tokens.
func (s *Service) Verify(raw string) (*tiktok.UserProfile, error) {
	token, err := jwt.ParseString(raw, jwt.WithKey(jwa.ES256, s.verifyKey))
	if err != nil {
		return nil, fmt.Errorf("parse demo token: %w", err)
	}

	user := &tiktok.UserProfile{ID: token.Subject()}
	if name, ok := token.Get("name"); ok {
		user.Name, _ = name.(string)
	}
	if email, ok := token.Get("email"); ok {
		user.Email, _ = email.(string)
	}
	return user, nil
}
