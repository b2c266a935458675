package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	model "catalog-sync-backend/internal/domains/webhook/model"
	"catalog-sync-backend/internal/infrastructure/database"
)

type sqliteRepository struct {
	db *database.DB
}

func NewSQLiteRepository(db *database.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Insert(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO events (
			topic, action, resource_id, name, kind, payload, signature, retailer_id,
			old_stock_status, new_stock_status, old_stock_quantity, new_stock_quantity,
			stock_change
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Topic, e.Action.String(), e.ResourceID, e.Name, e.Kind, e.Payload, e.Signature, e.RetailerID,
		e.OldStockStatus, e.NewStockStatus, nullableInt(e.OldStockQuantity), nullableInt(e.NewStockQuantity),
		e.StockChange,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}

	return nil
}

func (r *sqliteRepository) MarkProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE events SET processed = 1, processed_at = datetime('now'), error = ''
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event %d processed: %w", id, err)
	}
	return nil
}

func (r *sqliteRepository) MarkError(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE events SET processed = 1, processed_at = datetime('now'), error = ?
		WHERE id = ?
	`, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark event %d errored: %w", id, err)
	}
	return nil
}

func (r *sqliteRepository) Recent(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, topic, action, resource_id, name, kind, retailer_id,
		       old_stock_status, new_stock_status, old_stock_quantity, new_stock_quantity,
		       stock_change, processed, processed_at, error, created_at
		FROM events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e           model.Event
			action      string
			oldQty      sql.NullInt64
			newQty      sql.NullInt64
			processed   int
			processedAt sql.NullString
			createdAt   string
		)

		err := rows.Scan(&e.ID, &e.Topic, &action, &e.ResourceID, &e.Name, &e.Kind, &e.RetailerID,
			&e.OldStockStatus, &e.NewStockStatus, &oldQty, &newQty,
			&e.StockChange, &processed, &processedAt, &e.Error, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		e.Action = model.EventAction(action)
		e.OldStockQuantity = intPointer(oldQty)
		e.NewStockQuantity = intPointer(newQty)
		e.Processed = processed != 0
		if processedAt.Valid {
			if ts, err := time.Parse("2006-01-02 15:04:05", processedAt.String); err == nil {
				e.ProcessedAt = &ts
			}
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			e.CreatedAt = ts
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *sqliteRepository) Stats(ctx context.Context) (*model.Stats, error) {
	s := &model.Stats{}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN processed = 1 AND error = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN processed = 1 AND error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN processed = 0 THEN 1 ELSE 0 END), 0)
		FROM events
	`).Scan(&s.Total, &s.Processed, &s.Errors, &s.Pending)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	return s, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intPointer(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
