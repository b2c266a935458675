package model

import (
	"time"
)

// EventAction is the verb part of a push topic ("product.<action>").
type EventAction string

const (
	ActionCreated  EventAction = "created"
	ActionUpdated  EventAction = "updated"
	ActionDeleted  EventAction = "deleted"
	ActionRestored EventAction = "restored"
)

func (a EventAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionRestored:
		return true
	}
	return false
}

func (a EventAction) String() string {
	return string(a)
}

// Event is one received push notification, persisted before any work
// happens so nothing is lost when processing fails. The stock delta is
// derived against the cache at receive time.
type Event struct {
	ID               int64       `json:"id"`
	Topic            string      `json:"topic"`
	Action           EventAction `json:"action"`
	ResourceID       int64       `json:"resource_id"`
	Name             string      `json:"name"`
	Kind             string      `json:"kind"`
	Payload          string      `json:"-"`
	Signature        string      `json:"-"`
	RetailerID       string      `json:"retailer_id"`
	OldStockStatus   string      `json:"old_stock_status"`
	NewStockStatus   string      `json:"new_stock_status"`
	OldStockQuantity *int        `json:"old_stock_quantity"`
	NewStockQuantity *int        `json:"new_stock_quantity"`
	StockChange      int         `json:"stock_change"`
	Processed        bool        `json:"processed"`
	ProcessedAt      *time.Time  `json:"processed_at,omitempty"`
	Error            string      `json:"error,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Stats aggregates event rows for the status endpoint.
type Stats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Pending   int `json:"pending"`
}
