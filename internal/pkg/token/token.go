package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed tokens and bad signatures alike.
	// Callers must not be able to tell the two apart.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired means the token verified but its expiry has passed.
	ErrExpired = errors.New("token expired")

	errEmptySecret = errors.New("token: secret must not be empty")
	errInvalidTTL  = errors.New("token: ttl must be positive")
)

// Service issues and verifies HS256 bearer tokens. All tokens share a single
// lifetime fixed at construction; callers cannot influence it per request.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	Email string `json:"email"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		return nil, errInvalidTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the session lifetime shared by tokens and session records.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the subject. Expiry is always issuedAt+ttl.
func (s *Service) Issue(subjectID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// ParseAndVerify checks the signature and expiry of tokenStr and returns its
// claims. An expired but otherwise valid token yields ErrExpired; every other
// failure (wrong part count, malformed base64 or JSON, signature mismatch,
// unexpected algorithm) collapses to ErrInvalidToken.
func (s *Service) ParseAndVerify(tokenStr string) (*Claims, error) {
	tok, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeUnchecked extracts claims without verifying the signature. It exists
// for diagnostics only and must never feed an authorization decision.
func (s *Service) DecodeUnchecked(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
