package store

import (
	"context"
	"database/sql"
	"time"

	"smartorder/internal/models"
)

// UpsertStats writes a daily stats row keyed by date (full recompute, last
// writer wins)
func (s *Store) UpsertStats(ctx context.Context, stats *models.Stats) error {
	query := `
		INSERT INTO stats_summary (stats_date, total_revenue, total_orders, avg_revenue_per_item, avg_prep_time_per_item)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stats_date)
		DO UPDATE SET total_revenue = $2, total_orders = $3, avg_revenue_per_item = $4, avg_prep_time_per_item = $5
		RETURNING id`

	return s.db.GetContext(ctx, &stats.ID, query,
		stats.Date, stats.TotalRevenue, stats.TotalOrders,
		stats.AvgRevenuePerItem, stats.AvgPrepTimePerItem)
}

// GetStatsByDate retrieves the stats row for a date, nil when none exists
func (s *Store) GetStatsByDate(ctx context.Context, date time.Time) (*models.Stats, error) {
	var stats models.Stats
	err := s.db.GetContext(ctx, &stats,
		"SELECT * FROM stats_summary WHERE stats_date = $1", date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
