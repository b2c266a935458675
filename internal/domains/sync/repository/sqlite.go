package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	model "catalog-sync-backend/internal/domains/sync/model"
	"catalog-sync-backend/internal/infrastructure/database"
)

type sqliteRepository struct {
	db *database.DB
}

func NewSQLiteRepository(db *database.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Ensure(ctx context.Context, productID int64, retailerID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_status (product_id, retailer_id, sync_state)
		VALUES (?, ?, ?)
		ON CONFLICT(retailer_id) DO UPDATE SET
			product_id = excluded.product_id,
			updated_at = datetime('now')
	`, productID, retailerID, model.StatePending.String())
	if err != nil {
		return fmt.Errorf("failed to ensure sync status for %s: %w", retailerID, err)
	}
	return nil
}

func (r *sqliteRepository) GetByRetailerID(ctx context.Context, retailerID string) (*model.SyncStatus, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, retailer_id, sync_state, exists_remotely,
		       last_availability, last_inventory, last_synced_at, last_error
		FROM sync_status
		WHERE retailer_id = ?
	`, retailerID)

	var (
		st        model.SyncStatus
		state     string
		exists    int
		inventory sql.NullInt64
		syncedAt  sql.NullString
	)

	err := row.Scan(&st.ID, &st.ProductID, &st.RetailerID, &state, &exists,
		&st.LastAvailability, &inventory, &syncedAt, &st.LastError)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync status for %s: %w", retailerID, err)
	}

	st.State = model.SyncState(state)
	st.ExistsRemotely = exists != 0
	if inventory.Valid {
		n := int(inventory.Int64)
		st.LastInventory = &n
	}
	if syncedAt.Valid {
		if ts, err := time.Parse("2006-01-02 15:04:05", syncedAt.String); err == nil {
			st.LastSyncedAt = &ts
		}
	}

	return &st, nil
}

func (r *sqliteRepository) MarkSynced(ctx context.Context, retailerID, availability string, inventory *int) error {
	var inv interface{}
	if inventory != nil {
		inv = *inventory
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_status SET
			sync_state        = ?,
			exists_remotely   = 1,
			last_availability = ?,
			last_inventory    = ?,
			last_synced_at    = datetime('now'),
			last_error        = '',
			updated_at        = datetime('now')
		WHERE retailer_id = ?
	`, model.StateSynced.String(), availability, inv, retailerID)
	if err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", retailerID, err)
	}
	return nil
}

func (r *sqliteRepository) MarkError(ctx context.Context, retailerID, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_status SET
			sync_state = ?,
			last_error = ?,
			updated_at = datetime('now')
		WHERE retailer_id = ?
	`, model.StateError.String(), message, retailerID)
	if err != nil {
		return fmt.Errorf("failed to mark %s errored: %w", retailerID, err)
	}
	return nil
}

func (r *sqliteRepository) SetExistsRemotely(ctx context.Context, retailerID string, exists bool) error {
	v := 0
	if exists {
		v = 1
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_status SET exists_remotely = ?, updated_at = datetime('now')
		WHERE retailer_id = ?
	`, v, retailerID)
	if err != nil {
		return fmt.Errorf("failed to set exists_remotely for %s: %w", retailerID, err)
	}
	return nil
}

func (r *sqliteRepository) DeleteByRetailerID(ctx context.Context, retailerID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sync_status WHERE retailer_id = ?", retailerID)
	if err != nil {
		return fmt.Errorf("failed to delete sync status for %s: %w", retailerID, err)
	}
	return nil
}

func (r *sqliteRepository) CountsByState(ctx context.Context) (*model.StateCounts, error) {
	c := &model.StateCounts{}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN sync_state = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sync_state = 'synced' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sync_state = 'error' THEN 1 ELSE 0 END), 0)
		FROM sync_status
	`).Scan(&c.Pending, &c.Synced, &c.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to count sync states: %w", err)
	}

	return c, nil
}
