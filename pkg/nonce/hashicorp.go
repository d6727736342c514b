package nonce

import (
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/nonceutil"
)

type hashicorpService struct {
	inner nonceutil.NonceService
}

// NewService returns a Service backed by hashicorp's in-memory nonce
// implementation. Tokens expire on their own; Redeem succeeds at most
// once per token.
func NewService() (Service, error) {
	inner := nonceutil.NewNonceService()
	if err := inner.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize nonce service: %w", err)
	}
	return &hashicorpService{inner: inner}, nil
}

func (s *hashicorpService) Get() (string, error) {
	nonceStr, _, err := s.inner.Get()
	if err != nil {
		return "", err
	}
	return nonceStr, nil
}

func (s *hashicorpService) Redeem(nonceStr string) error {
	if ok := s.inner.Redeem(nonceStr); !ok {
		return fmt.Errorf("nonce %s not found or already used", nonceStr)
	}
	return nil
}
