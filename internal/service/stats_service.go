package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"smartorder/internal/errs"
	"smartorder/internal/models"
	"smartorder/internal/notify"
	"smartorder/internal/util"

	"go.uber.org/zap"
)

// StatsOrderSource is the slice of order persistence the aggregator reads
type StatsOrderSource interface {
	ListOrdersPlacedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

// StatsStore is the persistence boundary for the derived stats rows
type StatsStore interface {
	UpsertStats(ctx context.Context, stats *models.Stats) error
	GetStatsByDate(ctx context.Context, date time.Time) (*models.Stats, error)
}

// StatsService recomputes daily aggregate metrics from source orders. Every
// recompute is full, never incremental, so aggregates cannot drift; for a
// given date the last writer wins.
type StatsService struct {
	orders StatsOrderSource
	store  StatsStore
	menu   MenuLookup
	hub    *notify.Hub
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(orders StatsOrderSource, store StatsStore, menu MenuLookup, hub *notify.Hub) *StatsService {
	return &StatsService{
		orders: orders,
		store:  store,
		menu:   menu,
		hub:    hub,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// RecomputeForDate rebuilds the stats row for the calendar date of the given
// time from all orders placed that day, upserts it and pushes it to the
// stats channel. Revenue uses live menu prices; the per-item prep time
// average only counts orders with a known preparation duration.
func (s *StatsService) RecomputeForDate(ctx context.Context, date time.Time) (*models.Stats, error) {
	ctx, span := util.StartSpan(ctx, "StatsService.RecomputeForDate")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StatsRecomputeLatency.Observe(time.Since(start).Seconds())
	}()

	day := startOfDay(date)
	orders, err := s.orders.ListOrdersPlacedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		util.StatsRecomputeFailures.Inc()
		return nil, err
	}

	var (
		totalRevenue  float64
		totalItems    int
		totalPrepTime float64
		itemsWithPrep int
		menuCache     = map[int64]*models.MenuItem{}
	)

	for i := range orders {
		order := &orders[i]

		orderItems := 0
		for _, line := range order.Lines {
			if line.Quantity <= 0 {
				continue
			}
			item, err := s.lookupMenuItem(ctx, menuCache, line.MenuItemID)
			if err != nil {
				util.StatsRecomputeFailures.Inc()
				return nil, err
			}
			if item == nil {
				continue
			}
			totalRevenue += item.Price * float64(line.Quantity)
			totalItems += line.Quantity
			orderItems += line.Quantity
		}

		prepTime := prepTimeMinutes(order)
		if prepTime > 0 {
			totalPrepTime += prepTime * float64(orderItems)
			itemsWithPrep += orderItems
		}
	}

	stats := &models.Stats{
		Date:         day,
		TotalRevenue: round2(totalRevenue),
		TotalOrders:  int64(len(orders)),
	}
	if totalItems > 0 {
		stats.AvgRevenuePerItem = round2(totalRevenue / float64(totalItems))
	}
	if itemsWithPrep > 0 {
		stats.AvgPrepTimePerItem = round2(totalPrepTime / float64(itemsWithPrep))
	}

	if err := s.store.UpsertStats(ctx, stats); err != nil {
		util.StatsRecomputeFailures.Inc()
		return nil, err
	}

	s.logger.Debug("Stats recomputed",
		zap.Time("date", day),
		zap.Float64("revenue", stats.TotalRevenue),
		zap.Int64("orders", stats.TotalOrders))

	s.hub.StatsUpdated(ctx, stats)
	return stats, nil
}

// StatsForDate reads the stored stats row for a date, returning a zero row
// when none has been computed yet.
func (s *StatsService) StatsForDate(ctx context.Context, date time.Time) (*models.Stats, error) {
	day := startOfDay(date)
	stats, err := s.store.GetStatsByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &models.Stats{Date: day}, nil
	}
	return stats, nil
}

// TopSellingItems returns the top 6 menu items for a date by quantity sold
func (s *StatsService) TopSellingItems(ctx context.Context, date time.Time) ([]models.TopItem, error) {
	day := startOfDay(date)
	orders, err := s.orders.ListOrdersPlacedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	menuCache := map[int64]*models.MenuItem{}
	byName := map[string]*models.TopItem{}

	for i := range orders {
		for _, line := range orders[i].Lines {
			if line.Quantity <= 0 {
				continue
			}
			item, err := s.lookupMenuItem(ctx, menuCache, line.MenuItemID)
			if err != nil {
				return nil, err
			}
			if item == nil {
				continue
			}

			entry, ok := byName[item.Name]
			if !ok {
				entry = &models.TopItem{Name: item.Name, PricePerItem: round2(item.Price)}
				byName[item.Name] = entry
			}
			entry.Orders += line.Quantity
			entry.Revenue = round2(entry.Revenue + item.Price*float64(line.Quantity))
		}
	}

	result := make([]models.TopItem, 0, len(byName))
	for _, entry := range byName {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Orders > result[j].Orders
	})
	if len(result) > 6 {
		result = result[:6]
	}
	return result, nil
}

// CategorySales returns revenue grouped by menu category for a date
func (s *StatsService) CategorySales(ctx context.Context, date time.Time) (map[string]float64, error) {
	day := startOfDay(date)
	orders, err := s.orders.ListOrdersPlacedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	menuCache := map[int64]*models.MenuItem{}
	sales := map[string]float64{}

	for i := range orders {
		for _, line := range orders[i].Lines {
			if line.Quantity <= 0 {
				continue
			}
			item, err := s.lookupMenuItem(ctx, menuCache, line.MenuItemID)
			if err != nil {
				return nil, err
			}
			if item == nil {
				continue
			}
			sales[item.Category] = round2(sales[item.Category] + item.Price*float64(line.Quantity))
		}
	}
	return sales, nil
}

// BusyHours reports actual order counts per hour for a date alongside a
// prediction, the average hourly count over the seven days before it.
func (s *StatsService) BusyHours(ctx context.Context, date time.Time) (*models.BusyHoursReport, error) {
	day := startOfDay(date)
	orders, err := s.orders.ListOrdersPlacedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	actual := make([]int64, 24)
	for i := range orders {
		actual[orders[i].PlacedAt.Hour()]++
	}

	predicted := make([]float64, 24)
	for back := 1; back <= 7; back++ {
		from := day.AddDate(0, 0, -back)
		past, err := s.orders.ListOrdersPlacedBetween(ctx, from, from.Add(24*time.Hour))
		if err != nil {
			return nil, err
		}
		for i := range past {
			predicted[past[i].PlacedAt.Hour()]++
		}
	}
	for h := range predicted {
		predicted[h] = round2(predicted[h] / 7)
	}

	return &models.BusyHoursReport{
		Labels:    hourlyLabels(),
		Predicted: predicted,
		Actual:    actual,
	}, nil
}

// HourlySalesPerformance reports revenue per hour for a date against the day
// before. Revenue here is the stored order total, not live menu prices, so
// the curve reflects what was actually charged that hour.
func (s *StatsService) HourlySalesPerformance(ctx context.Context, date time.Time) (*models.HourlySalesReport, error) {
	day := startOfDay(date)
	today, err := s.hourlyRevenue(ctx, day)
	if err != nil {
		return nil, err
	}
	yesterday, err := s.hourlyRevenue(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	return &models.HourlySalesReport{
		Labels:    hourlyLabels(),
		Today:     today,
		Yesterday: yesterday,
	}, nil
}

// WeeklySalesPerformance reports revenue per weekday for the current week,
// Monday through Sunday, against the week before.
func (s *StatsService) WeeklySalesPerformance(ctx context.Context) (*models.WeeklySalesReport, error) {
	monday := startOfWeek(s.now())
	thisWeek, err := s.dailyRevenue(ctx, monday)
	if err != nil {
		return nil, err
	}
	lastWeek, err := s.dailyRevenue(ctx, monday.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	return &models.WeeklySalesReport{
		Labels:   []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		ThisWeek: thisWeek,
		LastWeek: lastWeek,
	}, nil
}

// MonthlySalesPerformance reports revenue in four fixed week-of-month
// buckets for a month against the month before.
func (s *StatsService) MonthlySalesPerformance(ctx context.Context, year int, month time.Month) (*models.MonthlySalesReport, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.now().Location())
	current, err := s.weekOfMonthRevenue(ctx, start)
	if err != nil {
		return nil, err
	}
	last, err := s.weekOfMonthRevenue(ctx, start.AddDate(0, -1, 0))
	if err != nil {
		return nil, err
	}
	return &models.MonthlySalesReport{
		Labels:       []string{"Week 1", "Week 2", "Week 3", "Week 4"},
		CurrentMonth: current,
		LastMonth:    last,
	}, nil
}

func (s *StatsService) hourlyRevenue(ctx context.Context, day time.Time) ([]float64, error) {
	orders, err := s.orders.ListOrdersPlacedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	revenue := make([]float64, 24)
	for i := range orders {
		order := &orders[i]
		revenue[order.PlacedAt.Hour()] += float64(order.TotalAmountCents) / 100
	}
	for h := range revenue {
		revenue[h] = round2(revenue[h])
	}
	return revenue, nil
}

func (s *StatsService) dailyRevenue(ctx context.Context, weekStart time.Time) ([]float64, error) {
	orders, err := s.orders.ListOrdersPlacedBetween(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}
	revenue := make([]float64, 7)
	for i := range orders {
		order := &orders[i]
		idx := (int(order.PlacedAt.Weekday()) + 6) % 7 // Monday first
		revenue[idx] += float64(order.TotalAmountCents) / 100
	}
	for d := range revenue {
		revenue[d] = round2(revenue[d])
	}
	return revenue, nil
}

func (s *StatsService) weekOfMonthRevenue(ctx context.Context, monthStart time.Time) ([]float64, error) {
	orders, err := s.orders.ListOrdersPlacedBetween(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	buckets := make([]float64, 4)
	for i := range orders {
		order := &orders[i]
		week := (order.PlacedAt.Day() - 1) / 7
		if week > 3 {
			// days 29-31 fold into the last bucket
			week = 3
		}
		buckets[week] += float64(order.TotalAmountCents) / 100
	}
	for w := range buckets {
		buckets[w] = round2(buckets[w])
	}
	return buckets, nil
}

func hourlyLabels() []string {
	labels := make([]string, 24)
	for h := range labels {
		labels[h] = fmt.Sprintf("%02d:00", h)
	}
	return labels
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// lookupMenuItem memoizes menu reads within one aggregation pass. Unknown
// menu items resolve to nil and their lines are skipped.
func (s *StatsService) lookupMenuItem(ctx context.Context, cache map[int64]*models.MenuItem, id int64) (*models.MenuItem, error) {
	if item, ok := cache[id]; ok {
		return item, nil
	}
	item, err := s.menu.GetMenuItem(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		cache[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cache[id] = item
	return item, nil
}

// prepTimeMinutes resolves an order's preparation duration: the explicit
// value when set, otherwise ReadyAt-PlacedAt, otherwise zero (excluded from
// the average).
func prepTimeMinutes(order *models.Order) float64 {
	if order.PrepTimeMinutes != nil {
		return *order.PrepTimeMinutes
	}
	if order.ReadyAt != nil {
		return order.ReadyAt.Sub(order.PlacedAt).Minutes()
	}
	return 0
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
