package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	model "catalog-sync-backend/internal/domains/auth/model"
	"catalog-sync-backend/internal/infrastructure/database"
)

const timeLayout = "2006-01-02 15:04:05"

type sqliteRepository struct {
	db *database.DB
}

func NewSQLiteRepository(db *database.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Create(ctx context.Context, s *model.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, username, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, s.Token, s.Username, s.CreatedAt.UTC().Format(timeLayout), s.ExpiresAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sqliteRepository) Get(ctx context.Context, token string) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, username, created_at, expires_at FROM sessions WHERE token = ?
	`, token)

	var (
		s                    model.Session
		createdAt, expiresAt string
	)
	err := row.Scan(&s.Token, &s.Username, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if ts, err := time.Parse(timeLayout, createdAt); err == nil {
		s.CreatedAt = ts
	}
	if ts, err := time.Parse(timeLayout, expiresAt); err == nil {
		s.ExpiresAt = ts
	}

	return &s, nil
}

func (r *sqliteRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *sqliteRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
