package model

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("sync status not found")

// SyncState is the reconciliation state of one replicable id.
type SyncState string

const (
	StatePending SyncState = "pending"
	StateSynced  SyncState = "synced"
	StateError   SyncState = "error"
)

func (s SyncState) String() string {
	return string(s)
}

// SyncStatus tracks one future ad-catalog entry: a simple product or a
// single variation, keyed by retailer-id. ProductID points at the owning
// top-level product so the row dies with it.
type SyncStatus struct {
	ID               int64      `json:"id"`
	ProductID        int64      `json:"product_id"`
	RetailerID       string     `json:"retailer_id"`
	State            SyncState  `json:"sync_state"`
	ExistsRemotely   bool       `json:"exists_remotely"`
	LastAvailability string     `json:"last_availability"`
	LastInventory    *int       `json:"last_inventory"`
	LastSyncedAt     *time.Time `json:"last_synced_at"`
	LastError        string     `json:"last_error,omitempty"`
}

// StockChanged reports whether the observed availability or inventory
// differs from the last synced values.
func (s *SyncStatus) StockChanged(availability string, inventory *int) bool {
	if s.LastAvailability != availability {
		return true
	}
	return !intEqual(s.LastInventory, inventory)
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StateCounts aggregates sync_status rows for the status endpoint.
type StateCounts struct {
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Error   int `json:"error"`
}

// Report summarizes one bulk replication run.
type Report struct {
	TotalProducts int       `json:"total_products"`
	InStock       int       `json:"in_stock"`
	Created       int       `json:"created"`
	Updated       int       `json:"updated"`
	Errors        int       `json:"errors"`
	Skipped       int       `json:"skipped"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Duration      string    `json:"duration"`
}
