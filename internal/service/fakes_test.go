package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartorder/internal/errs"
	"smartorder/internal/models"
	"smartorder/internal/notify"
)

// memStore is an in-memory stand-in for the persistence boundary, shared by
// the service tests.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*models.TableSession
	orders   map[int64]*models.Order
	menu     map[int64]*models.MenuItem
	stats    map[string]*models.Stats
	helps    map[int64]*models.HelpRequest
}

func newMemStore() *memStore {
	return &memStore{
		sessions: map[string]*models.TableSession{},
		orders:   map[int64]*models.Order{},
		menu:     map[int64]*models.MenuItem{},
		stats:    map[string]*models.Stats{},
		helps:    map[int64]*models.HelpRequest{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Lines = append([]models.OrderLine(nil), o.Lines...)
	return &cp
}

func (m *memStore) GetSession(_ context.Context, tableNumber string) (*models.TableSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[tableNumber]
	if !ok {
		return nil, fmt.Errorf("table session %s: %w", tableNumber, errs.ErrNotFound)
	}
	cp := *session
	return &cp, nil
}

// SaveSession is a seeding helper for tests that need a session in a
// particular state.
func (m *memStore) SaveSession(_ context.Context, session *models.TableSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == 0 {
		session.ID = m.id()
	}
	cp := *session
	m.sessions[session.TableNumber] = &cp
	return nil
}

func (m *memStore) ActivateSession(_ context.Context, tableNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[tableNumber]
	if !ok {
		session = &models.TableSession{ID: m.id(), TableNumber: tableNumber}
		m.sessions[tableNumber] = session
	}
	if session.SessionActive {
		return false, nil
	}
	session.SessionActive = true
	session.BillProcessed = false
	return true, nil
}

func (m *memStore) MarkBillProcessed(_ context.Context, tableNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[tableNumber]
	if !ok || session.BillProcessed {
		return false, nil
	}
	session.BillProcessed = true
	return true, nil
}

func (m *memStore) DeactivateSession(_ context.Context, tableNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[tableNumber]
	if !ok || !session.SessionActive || !session.BillProcessed {
		return false, nil
	}
	session.SessionActive = false
	return true, nil
}

func (m *memStore) ActiveTables(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tables []string
	for _, s := range m.sessions {
		if s.SessionActive {
			tables = append(tables, s.TableNumber)
		}
	}
	return tables, nil
}

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.id()
	for i := range order.Lines {
		order.Lines[i].ID = m.id()
		order.Lines[i].OrderID = order.ID
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, errs.ErrNotFound)
	}
	return copyOrder(order), nil
}

func (m *memStore) ListOrders(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []models.Order
	for _, o := range m.orders {
		orders = append(orders, *copyOrder(o))
	}
	return orders, nil
}

func (m *memStore) ListOrdersByStatus(_ context.Context, status string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []models.Order
	for _, o := range m.orders {
		if o.Status == status {
			orders = append(orders, *copyOrder(o))
		}
	}
	return orders, nil
}

func (m *memStore) ListOrdersByTable(_ context.Context, tableNumber string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []models.Order
	for _, o := range m.orders {
		if o.TableNumber == tableNumber {
			orders = append(orders, *copyOrder(o))
		}
	}
	return orders, nil
}

func (m *memStore) ListOrdersPlacedBetween(_ context.Context, from, to time.Time) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []models.Order
	for _, o := range m.orders {
		if !o.PlacedAt.Before(from) && o.PlacedAt.Before(to) {
			orders = append(orders, *copyOrder(o))
		}
	}
	return orders, nil
}

func (m *memStore) AdvanceOrderStatus(_ context.Context, id int64, from, to string, readyAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	if readyAt != nil {
		order.ReadyAt = readyAt
	}
	return true, nil
}

func (m *memStore) GetMenuItem(_ context.Context, id int64) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.menu[id]
	if !ok {
		return nil, fmt.Errorf("menu item %d: %w", id, errs.ErrNotFound)
	}
	cp := *item
	return &cp, nil
}

func (m *memStore) addMenuItem(id int64, name, category string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menu[id] = &models.MenuItem{ID: id, Name: name, Category: category, Price: price, Available: true}
}

func statsKey(date time.Time) string {
	return date.Format("2006-01-02")
}

func (m *memStore) UpsertStats(_ context.Context, stats *models.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := statsKey(stats.Date)
	if existing, ok := m.stats[key]; ok {
		stats.ID = existing.ID
	} else {
		stats.ID = m.id()
	}
	cp := *stats
	m.stats[key] = &cp
	return nil
}

func (m *memStore) GetStatsByDate(_ context.Context, date time.Time) (*models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.stats[statsKey(date)]
	if !ok {
		return nil, nil
	}
	cp := *stats
	return &cp, nil
}

func (m *memStore) CreateHelpRequest(_ context.Context, req *models.HelpRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.id()
	cp := *req
	m.helps[req.ID] = &cp
	return nil
}

func (m *memStore) GetHelpRequest(_ context.Context, id int64) (*models.HelpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.helps[id]
	if !ok {
		return nil, fmt.Errorf("help request %d: %w", id, errs.ErrNotFound)
	}
	cp := *req
	return &cp, nil
}

func (m *memStore) ListActiveHelpRequests(_ context.Context) ([]models.HelpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reqs []models.HelpRequest
	for _, r := range m.helps {
		if !r.Resolved {
			reqs = append(reqs, *r)
		}
	}
	return reqs, nil
}

func (m *memStore) ResolveHelpRequest(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.helps[id]
	if !ok {
		return fmt.Errorf("help request %d: %w", id, errs.ErrNotFound)
	}
	req.Resolved = true
	return nil
}

// recorded is one captured publication
type recorded struct {
	channel string
	event   interface{}
}

// recordingPublisher captures everything the hub publishes
type recordingPublisher struct {
	mu     sync.Mutex
	events []recorded
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recorded{channel: channel, event: event})
	return nil
}

func (p *recordingPublisher) countOn(channel, eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, rec := range p.events {
		if rec.channel != channel {
			continue
		}
		if eventType == "" || recordedType(rec.event) == eventType {
			n++
		}
	}
	return n
}

func recordedType(event interface{}) string {
	switch e := event.(type) {
	case *models.OrderEvent:
		return e.EventType
	case *models.TableEvent:
		return e.EventType
	case *models.StatsEvent:
		return e.EventType
	case *models.HelpRequestEvent:
		return e.EventType
	}
	return ""
}

// noopStats satisfies StatsRecomputer for tests that don't care about stats
type noopStats struct{}

func (noopStats) RecomputeForDate(context.Context, time.Time) (*models.Stats, error) {
	return &models.Stats{}, nil
}

// failingStats satisfies StatsRecomputer and always fails
type failingStats struct{}

func (failingStats) RecomputeForDate(context.Context, time.Time) (*models.Stats, error) {
	return nil, fmt.Errorf("stats backend unavailable")
}

func newTestHub(pub notify.Publisher) *notify.Hub {
	return notify.NewHub(pub)
}
