package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Signer computes and checks HMAC-SHA256 signatures over byte strings. It is
// the trust primitive behind token issuance and the session digest.
type Signer struct {
	secret []byte
}

// ErrEmptySecret indicates a misconfigured deployment; signing with an empty
// secret must never be attempted.
var ErrEmptySecret = errors.New("signature: secret must not be empty")

func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the base64url-encoded (unpadded) HMAC-SHA256 of data.
func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is a valid signature of data. The comparison is
// constant time regardless of where the signatures diverge.
func (s *Signer) Verify(data []byte, sig string) bool {
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return hmac.Equal(mac.Sum(nil), got)
}
