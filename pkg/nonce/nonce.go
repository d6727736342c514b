// Package nonce issues single-use tokens, used as tickets for the
// upload progress stream.
package nonce

type Service interface {
	Get() (string, error)
	Redeem(nonceStr string) error
}
