package auth

import (
	"context"

	"todovault/internal/domain"
)

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type tokenIssuer interface {
	Issue(subjectID, email string) (string, error)
}

type sessionStore interface {
	Put(ctx context.Context, subjectID, token string) error
	Delete(ctx context.Context, subjectID string) error
}

type limitResetter interface {
	Reset(ctx context.Context, action, clientID string) error
}
