package service

import (
	"context"
	"testing"
	"time"

	"smartorder/internal/models"
	"smartorder/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatsFixture() (*StatsService, *memStore, *recordingPublisher) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewStatsService(store, store, store, newTestHub(pub))
	return svc, store, pub
}

func seedOrder(store *memStore, placedAt time.Time, readyAt *time.Time, lines ...models.OrderLine) {
	order := &models.Order{
		TableNumber: "1",
		Status:      models.OrderStatusWaiting,
		PlacedAt:    placedAt,
		ReadyAt:     readyAt,
		Lines:       lines,
	}
	_ = store.CreateOrder(context.Background(), order)
}

func TestRecomputeForDate(t *testing.T) {
	svc, store, _ := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)
	store.addMenuItem(2, "Soda", "drinks", 5.00)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(store, day.Add(12*time.Hour), nil, models.OrderLine{MenuItemID: 1, Quantity: 2})
	seedOrder(store, day.Add(13*time.Hour), nil, models.OrderLine{MenuItemID: 2, Quantity: 1})

	stats, err := svc.RecomputeForDate(context.Background(), day.Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 25.00, stats.TotalRevenue)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, 8.33, stats.AvgRevenuePerItem)
	assert.True(t, day.Equal(stats.Date))
}

func TestRecomputeIgnoresOrdersOutsideDate(t *testing.T) {
	svc, store, _ := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(store, day.Add(23*time.Hour), nil, models.OrderLine{MenuItemID: 1, Quantity: 1})
	seedOrder(store, day.Add(25*time.Hour), nil, models.OrderLine{MenuItemID: 1, Quantity: 1})

	stats, err := svc.RecomputeForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, 10.00, stats.TotalRevenue)
}

func TestRecomputePrepTimePerItem(t *testing.T) {
	svc, store, _ := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	placed := day.Add(12 * time.Hour)

	// 10 minutes for 2 items, and one order with no ready timestamp which is
	// excluded from the average entirely
	ready := placed.Add(10 * time.Minute)
	seedOrder(store, placed, &ready, models.OrderLine{MenuItemID: 1, Quantity: 2})
	seedOrder(store, placed, nil, models.OrderLine{MenuItemID: 1, Quantity: 4})

	stats, err := svc.RecomputeForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 10.00, stats.AvgPrepTimePerItem)
}

func TestRecomputeUsesExplicitPrepTime(t *testing.T) {
	svc, store, _ := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	placed := day.Add(12 * time.Hour)
	ready := placed.Add(30 * time.Minute)
	explicit := 5.0

	order := &models.Order{
		TableNumber:     "1",
		Status:          models.OrderStatusReady,
		PlacedAt:        placed,
		ReadyAt:         &ready,
		PrepTimeMinutes: &explicit,
		Lines:           []models.OrderLine{{MenuItemID: 1, Quantity: 1}},
	}
	require.NoError(t, store.CreateOrder(context.Background(), order))

	stats, err := svc.RecomputeForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 5.00, stats.AvgPrepTimePerItem)
}

func TestRecomputeEmptyDate(t *testing.T) {
	svc, _, _ := newStatsFixture()

	stats, err := svc.RecomputeForDate(context.Background(), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRevenue)
	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.AvgRevenuePerItem)
	assert.Zero(t, stats.AvgPrepTimePerItem)
}

func TestRecomputePublishesStatsUpdate(t *testing.T) {
	svc, store, pub := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(store, day.Add(time.Hour), nil, models.OrderLine{MenuItemID: 1, Quantity: 1})

	_, err := svc.RecomputeForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, pub.countOn(notify.ChannelStatsUpdates, models.EventTypeStatsUpdated))
}

func TestRecomputeIsFullNotIncremental(t *testing.T) {
	svc, store, _ := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(store, day.Add(time.Hour), nil, models.OrderLine{MenuItemID: 1, Quantity: 1})

	first, err := svc.RecomputeForDate(context.Background(), day)
	require.NoError(t, err)
	second, err := svc.RecomputeForDate(context.Background(), day)
	require.NoError(t, err)

	// repeated recomputes are pure functions of order state, no drift
	assert.Equal(t, first.TotalRevenue, second.TotalRevenue)
	assert.Equal(t, first.TotalOrders, second.TotalOrders)
}

func TestStatsForDateZeroRowWhenAbsent(t *testing.T) {
	svc, _, _ := newStatsFixture()

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	stats, err := svc.StatsForDate(context.Background(), day.Add(9*time.Hour))
	require.NoError(t, err)
	assert.True(t, day.Equal(stats.Date))
	assert.Zero(t, stats.TotalOrders)
}

func TestTopSellingItems(t *testing.T) {
	svc, store, _ := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)
	store.addMenuItem(2, "Soda", "drinks", 2.50)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(store, day.Add(time.Hour), nil,
		models.OrderLine{MenuItemID: 1, Quantity: 1},
		models.OrderLine{MenuItemID: 2, Quantity: 4})
	seedOrder(store, day.Add(2*time.Hour), nil, models.OrderLine{MenuItemID: 2, Quantity: 2})

	items, err := svc.TopSellingItems(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Soda", items[0].Name)
	assert.Equal(t, 6, items[0].Orders)
	assert.Equal(t, 15.00, items[0].Revenue)
	assert.Equal(t, "Pasta", items[1].Name)
}

func TestCategorySales(t *testing.T) {
	svc, store, _ := newStatsFixture()
	store.addMenuItem(1, "Pasta", "mains", 10.00)
	store.addMenuItem(2, "Soda", "drinks", 2.50)

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(store, day.Add(time.Hour), nil,
		models.OrderLine{MenuItemID: 1, Quantity: 2},
		models.OrderLine{MenuItemID: 2, Quantity: 2})

	sales, err := svc.CategorySales(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"mains": 20.00, "drinks": 5.00}, sales)
}

func seedOrderWithTotal(store *memStore, placedAt time.Time, totalCents int64) {
	order := &models.Order{
		TableNumber:      "1",
		Status:           models.OrderStatusCompleted,
		PlacedAt:         placedAt,
		TotalAmountCents: totalCents,
	}
	_ = store.CreateOrder(context.Background(), order)
}

func TestBusyHours(t *testing.T) {
	svc, store, _ := newStatsFixture()
	day := time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC)

	// two noon orders and one at 13:00 on the day itself
	seedOrderWithTotal(store, day.Add(12*time.Hour), 1000)
	seedOrderWithTotal(store, day.Add(12*time.Hour+30*time.Minute), 1000)
	seedOrderWithTotal(store, day.Add(13*time.Hour), 1000)

	// one noon order on each of the seven previous days
	for back := 1; back <= 7; back++ {
		seedOrderWithTotal(store, day.AddDate(0, 0, -back).Add(12*time.Hour), 1000)
	}
	// outside the prediction window
	seedOrderWithTotal(store, day.AddDate(0, 0, -8).Add(12*time.Hour), 1000)

	report, err := svc.BusyHours(context.Background(), day)
	require.NoError(t, err)

	require.Len(t, report.Labels, 24)
	assert.Equal(t, "00:00", report.Labels[0])
	assert.Equal(t, int64(2), report.Actual[12])
	assert.Equal(t, int64(1), report.Actual[13])
	assert.Equal(t, 1.00, report.Predicted[12])
	assert.Zero(t, report.Predicted[13])
}

func TestHourlySalesPerformance(t *testing.T) {
	svc, store, _ := newStatsFixture()
	day := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	seedOrderWithTotal(store, day.Add(12*time.Hour), 2550)
	seedOrderWithTotal(store, day.Add(12*time.Hour+15*time.Minute), 450)
	seedOrderWithTotal(store, day.AddDate(0, 0, -1).Add(12*time.Hour), 1000)

	report, err := svc.HourlySalesPerformance(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, 30.00, report.Today[12])
	assert.Equal(t, 10.00, report.Yesterday[12])
	assert.Zero(t, report.Today[11])
}

func TestWeeklySalesPerformance(t *testing.T) {
	svc, store, _ := newStatsFixture()

	monday := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return monday.Add(2*24*time.Hour + 9*time.Hour) }

	seedOrderWithTotal(store, monday.Add(10*time.Hour), 1000)
	seedOrderWithTotal(store, monday.AddDate(0, 0, -6).Add(10*time.Hour), 500) // last week's Tuesday

	report, err := svc.WeeklySalesPerformance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, report.Labels)
	assert.Equal(t, 10.00, report.ThisWeek[0])
	assert.Equal(t, 5.00, report.LastWeek[1])
	assert.Zero(t, report.ThisWeek[1])
}

func TestMonthlySalesPerformance(t *testing.T) {
	svc, store, _ := newStatsFixture()
	svc.now = func() time.Time { return time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC) }

	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrderWithTotal(store, april.AddDate(0, 0, 2).Add(12*time.Hour), 1000)  // day 3, week 1
	seedOrderWithTotal(store, april.AddDate(0, 0, 21).Add(12*time.Hour), 2000) // day 22, week 4
	seedOrderWithTotal(store, april.AddDate(0, 0, 29).Add(12*time.Hour), 500)  // day 30 folds into week 4
	seedOrderWithTotal(store, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), 1500)

	report, err := svc.MonthlySalesPerformance(context.Background(), 2025, time.April)
	require.NoError(t, err)

	assert.Equal(t, []string{"Week 1", "Week 2", "Week 3", "Week 4"}, report.Labels)
	assert.Equal(t, 10.00, report.CurrentMonth[0])
	assert.Equal(t, 25.00, report.CurrentMonth[3])
	assert.Zero(t, report.CurrentMonth[1])
	assert.Equal(t, 15.00, report.LastMonth[1])
}
