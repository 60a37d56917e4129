package models

import "time"

// Event types
const (
	EventTypeSessionStarted      = "SESSION_STARTED"
	EventTypeSessionEnded        = "SESSION_ENDED"
	EventTypeBillProcessed       = "BILL_PROCESSED"
	EventTypeNewOrder            = "NEW_ORDER"
	EventTypeOrderUpdate         = "UPDATE"
	EventTypeStatusChange        = "STATUS_CHANGE"
	EventTypeReady               = "READY"
	EventTypeStatsUpdated        = "STATS_UPDATED"
	EventTypeHelpRequestCreated  = "HELP_REQUEST_CREATED"
	EventTypeHelpRequestResolved = "HELP_REQUEST_RESOLVED"
)

// BaseEvent contains common fields for all published events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent carries an order snapshot to table, kitchen and waiter channels
type OrderEvent struct {
	BaseEvent
	Order *Order `json:"order"`
}

// TableEvent announces a table session change
type TableEvent struct {
	BaseEvent
	TableNumber string `json:"table_number"`
}

// StatsEvent carries a freshly recomputed daily stats row
type StatsEvent struct {
	BaseEvent
	Stats *Stats `json:"stats"`
}

// HelpRequestEvent announces a created or resolved help request
type HelpRequestEvent struct {
	BaseEvent
	Request *HelpRequest `json:"request"`
}
