package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"todovault/internal/domain"
	"todovault/internal/ratelimit"
)

// Service contains the credential logic around the auth core: it owns the
// password checks, then drives token issuance, session writes and the
// reset-on-success rule of the rate limiter.
type Service struct {
	users    UserRepositoryInterface
	tokens   tokenIssuer
	sessions sessionStore
	limiter  limitResetter
}

func NewService(users UserRepositoryInterface, tokens tokenIssuer, sessions sessionStore, limiter limitResetter) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		limiter:  limiter,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest, clientID string) (*domain.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         req.Name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.startSession(ctx, user, ratelimit.ActionRegister, clientID)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest, clientID string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.startSession(ctx, user, ratelimit.ActionLogin, clientID)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

// Refresh issues a new token for an already-authenticated subject and makes
// it the only live session. The old token dies with the overwrite.
func (s *Service) Refresh(ctx context.Context, subjectID, email string) (string, error) {
	token, err := s.tokens.Issue(subjectID, email)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(ctx, subjectID, token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) Logout(ctx context.Context, subjectID string) error {
	return s.sessions.Delete(ctx, subjectID)
}

func (s *Service) CurrentUser(ctx context.Context, subjectID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// startSession issues the token, records the session and zeroes the action's
// rate-limit counter, since the action demonstrably succeeded.
func (s *Service) startSession(ctx context.Context, user *domain.User, action, clientID string) (string, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(ctx, user.ID, token); err != nil {
		return "", err
	}
	if err := s.limiter.Reset(ctx, action, clientID); err != nil {
		return "", err
	}
	return token, nil
}
