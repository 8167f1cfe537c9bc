package session

import (
	"context"
	"errors"
	"time"

	"todovault/internal/kv"
	"todovault/internal/pkg/signature"
)

const keyPrefix = "session:"

// Store is the revocation authority for bearer tokens. One record per
// subject: a new Put overwrites whatever session existed before, which is
// what enforces the single-session-per-user policy.
//
// The record holds an HMAC digest of the current token rather than the raw
// token, so a leaked store dump cannot be replayed as credentials.
type Store struct {
	kv     kv.Store
	signer *signature.Signer
	ttl    time.Duration
}

var errInvalidTTL = errors.New("session: ttl must be positive")

func New(store kv.Store, signer *signature.Signer, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		return nil, errInvalidTTL
	}
	return &Store{kv: store, signer: signer, ttl: ttl}, nil
}

// Put records token as the subject's only live session. The record expires
// together with the token: both use the same ttl, fixed at construction.
func (s *Store) Put(ctx context.Context, subjectID, token string) error {
	digest := s.signer.Sign([]byte(token))
	return s.kv.Put(ctx, keyPrefix+subjectID, digest, time.Now().Add(s.ttl))
}

// Matches reports whether token is the subject's current session. A missing
// record or a digest mismatch both mean the token has been revoked; only a
// failed store round trip is reported as an error.
func (s *Store) Matches(ctx context.Context, subjectID, token string) (bool, error) {
	digest, err := s.kv.Get(ctx, keyPrefix+subjectID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.signer.Verify([]byte(token), digest), nil
}

// Delete revokes the subject's session immediately.
func (s *Store) Delete(ctx context.Context, subjectID string) error {
	return s.kv.Delete(ctx, keyPrefix+subjectID)
}
