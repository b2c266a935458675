package repository

import (
	"context"

	model "catalog-sync-backend/internal/domains/auth/model"
)

type Repository interface {
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
