package models

import "time"

// MenuItem represents an item on the restaurant menu. Prices are read live
// at computation time; no snapshot is taken when an order is placed.
type MenuItem struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description,omitempty"`
	Price       float64 `db:"price" json:"price"`
	Category    string  `db:"category" json:"category"`
	Available   bool    `db:"available" json:"available"`
}

// TableSession tracks one dining party's occupancy of a table, from first
// order to bill settlement. Sessions are reactivated, never hard-deleted.
type TableSession struct {
	ID            int64  `db:"id" json:"id"`
	TableNumber   string `db:"table_number" json:"table_number"`
	SessionActive bool   `db:"session_active" json:"session_active"`
	BillProcessed bool   `db:"bill_processed" json:"bill_processed"`
}

// Order represents a customer order for a table
type Order struct {
	ID               int64       `db:"id" json:"id"`
	TableNumber      string      `db:"table_number" json:"table_number"`
	Status           string      `db:"status" json:"status"`
	PlacedAt         time.Time   `db:"placed_at" json:"placed_at"`
	ReadyAt          *time.Time  `db:"ready_at" json:"ready_at,omitempty"`
	TotalAmountCents int64       `db:"total_amount_cents" json:"total_amount_cents"`
	PrepTimeMinutes  *float64    `db:"prep_time_minutes" json:"prep_time_minutes,omitempty"`
	Lines            []OrderLine `db:"-" json:"items"`
}

// OrderLine represents one menu item within an order
type OrderLine struct {
	ID           int64  `db:"id" json:"id"`
	OrderID      int64  `db:"order_id" json:"order_id"`
	MenuItemID   int64  `db:"menu_item_id" json:"menu_item_id"`
	Quantity     int    `db:"quantity" json:"quantity"`
	Instructions string `db:"instructions" json:"instructions,omitempty"`
}

// Order statuses. Transitions only move forward; each target status has a
// dedicated operation rather than a generic set-status call.
const (
	OrderStatusWaiting    = "WAITING_FOR_CONFIRMATION"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusReady      = "READY"
	OrderStatusCompleted  = "COMPLETED"
)

var statusRank = map[string]int{
	OrderStatusWaiting:    0,
	OrderStatusInProgress: 1,
	OrderStatusReady:      2,
	OrderStatusCompleted:  3,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// StatusRank returns the position of s in the lifecycle, -1 for unknown.
func StatusRank(s string) int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Stats holds derived daily metrics, fully recomputed from source orders on
// every mutation. One row per calendar date, upserted, never deleted.
type Stats struct {
	ID                 int64     `db:"id" json:"id"`
	Date               time.Time `db:"stats_date" json:"date"`
	TotalRevenue       float64   `db:"total_revenue" json:"total_revenue"`
	TotalOrders        int64     `db:"total_orders" json:"total_orders"`
	AvgRevenuePerItem  float64   `db:"avg_revenue_per_item" json:"avg_revenue_per_item"`
	AvgPrepTimePerItem float64   `db:"avg_prep_time_per_item" json:"avg_prep_time_per_item"`
}

// TopItem is one row of the per-date top selling items report.
type TopItem struct {
	Name         string  `json:"name"`
	Orders       int     `json:"orders"`
	PricePerItem float64 `json:"price_per_item"`
	Revenue      float64 `json:"revenue"`
}

// BusyHoursReport compares predicted hourly order volume against the actual
// counts for one date. Each slice has 24 entries, one per hour of the day.
type BusyHoursReport struct {
	Labels    []string  `json:"labels"`
	Predicted []float64 `json:"predicted"`
	Actual    []int64   `json:"actual"`
}

// HourlySalesReport holds revenue per hour for a date next to the same curve
// for the day before.
type HourlySalesReport struct {
	Labels    []string  `json:"labels"`
	Today     []float64 `json:"today"`
	Yesterday []float64 `json:"yesterday"`
}

// WeeklySalesReport holds revenue per weekday for the current week, Monday
// first, next to the same curve for the week before.
type WeeklySalesReport struct {
	Labels   []string  `json:"labels"`
	ThisWeek []float64 `json:"thisWeek"`
	LastWeek []float64 `json:"lastWeek"`
}

// MonthlySalesReport holds revenue bucketed into four fixed week-of-month
// ranges (days 1-7, 8-14, 15-21, 22-end) for a month and the month before.
type MonthlySalesReport struct {
	Labels       []string  `json:"labels"`
	CurrentMonth []float64 `json:"currentMonth"`
	LastMonth    []float64 `json:"lastMonth"`
}

// HelpRequest is a customer call for waiter assistance at a table.
type HelpRequest struct {
	ID          int64     `db:"id" json:"id"`
	TableNumber string    `db:"table_number" json:"table_number"`
	Reason      string    `db:"reason" json:"reason"`
	RequestTime time.Time `db:"request_time" json:"request_time"`
	Resolved    bool      `db:"resolved" json:"resolved"`
}
