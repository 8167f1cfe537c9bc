package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todovault/internal/pkg/token"
)

// Kind classifies an authentication failure for logging and tests. Responses
// never echo it: every kind except StoreUnavailable surfaces as the same
// generic unauthorized answer.
type Kind string

const (
	// KindMissingToken: no Authorization header at all.
	KindMissingToken Kind = "missing_token"
	// KindInvalidToken: malformed header, malformed token or bad signature.
	// Deliberately a single kind so the response cannot act as an oracle
	// for which check failed.
	KindInvalidToken Kind = "invalid_token"
	// KindExpired: the token verified but its expiry has passed.
	KindExpired Kind = "expired"
	// KindSessionRevoked: valid token, but no live session for its subject.
	KindSessionRevoked Kind = "session_revoked"
	// KindStoreUnavailable: the session lookup itself failed. Never treated
	// as anonymous or allowed through.
	KindStoreUnavailable Kind = "store_unavailable"
)

type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("authgate: %s: %v", e.Kind, e.err)
	}
	return "authgate: " + string(e.Kind)
}

func (e *Error) Unwrap() error { return e.err }

// RequestContext is the identity attached to a request once it passed the
// gate. Anonymous contexts (from OptionalAuthenticate) have empty identity
// fields.
type RequestContext struct {
	SubjectID     string
	Email         string
	NetworkOrigin string
}

func (rc *RequestContext) Anonymous() bool { return rc.SubjectID == "" }

type TokenVerifier interface {
	ParseAndVerify(tokenStr string) (*token.Claims, error)
}

type SessionChecker interface {
	Matches(ctx context.Context, subjectID, tokenStr string) (bool, error)
}

// Gate composes token verification and session lookup into one decision per
// request.
type Gate struct {
	tokens   TokenVerifier
	sessions SessionChecker
}

func New(tokens TokenVerifier, sessions SessionChecker) *Gate {
	return &Gate{tokens: tokens, sessions: sessions}
}

// Authenticate checks the Authorization header value and returns the request
// identity, or an *Error describing why the request must be rejected.
func (g *Gate) Authenticate(ctx context.Context, authorization, networkOrigin string) (*RequestContext, *Error) {
	tokenStr, gateErr := extractBearer(authorization)
	if gateErr != nil {
		return nil, gateErr
	}

	claims, err := g.tokens.ParseAndVerify(tokenStr)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, &Error{Kind: KindExpired, err: err}
		}
		return nil, &Error{Kind: KindInvalidToken, err: err}
	}

	// Revocation has precedence over signature validity: a perfectly signed
	// token whose session is gone is a dead token.
	live, err := g.sessions.Matches(ctx, claims.Subject, tokenStr)
	if err != nil {
		return nil, &Error{Kind: KindStoreUnavailable, err: err}
	}
	if !live {
		return nil, &Error{Kind: KindSessionRevoked}
	}

	return &RequestContext{
		SubjectID:     claims.Subject,
		Email:         claims.Email,
		NetworkOrigin: networkOrigin,
	}, nil
}

// OptionalAuthenticate is for endpoints that serve both anonymous and
// authenticated callers. A missing token yields an anonymous context, and so
// does any verification failure (fail closed, never an error the caller
// could branch on). Only a store outage is still surfaced.
func (g *Gate) OptionalAuthenticate(ctx context.Context, authorization, networkOrigin string) (*RequestContext, *Error) {
	rc, gateErr := g.Authenticate(ctx, authorization, networkOrigin)
	if gateErr != nil {
		if gateErr.Kind == KindStoreUnavailable {
			return nil, gateErr
		}
		return &RequestContext{NetworkOrigin: networkOrigin}, nil
	}
	return rc, nil
}

func extractBearer(authorization string) (string, *Error) {
	if authorization == "" {
		return "", &Error{Kind: KindMissingToken}
	}

	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", &Error{Kind: KindInvalidToken}
	}

	tokenStr := strings.TrimSpace(parts[1])
	if tokenStr == "" {
		return "", &Error{Kind: KindInvalidToken}
	}
	return tokenStr, nil
}
