package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"smartorder/internal/errs"
	"smartorder/internal/models"
	"smartorder/internal/notify"
	"smartorder/internal/util"

	"go.uber.org/zap"
)

// OrderStore is the persistence boundary for orders and their lines
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByStatus(ctx context.Context, status string) ([]models.Order, error)
	ListOrdersByTable(ctx context.Context, tableNumber string) ([]models.Order, error)
	AdvanceOrderStatus(ctx context.Context, id int64, from, to string, readyAt *time.Time) (bool, error)
}

// MenuLookup resolves menu items for price and name reads
type MenuLookup interface {
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
}

// StatsRecomputer refreshes the derived daily stats for a date
type StatsRecomputer interface {
	RecomputeForDate(ctx context.Context, date time.Time) (*models.Stats, error)
}

// OrderService drives the order lifecycle state machine:
// WAITING_FOR_CONFIRMATION -> IN_PROGRESS -> READY -> COMPLETED. Each
// transition is a dedicated operation; status never moves backward.
type OrderService struct {
	store      OrderStore
	menu       MenuLookup
	sessions   *SessionService
	stats      StatsRecomputer
	hub        *notify.Hub
	logger     *zap.Logger
	now        func() time.Time
	readyGrace time.Duration
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	menu MenuLookup,
	sessions *SessionService,
	stats StatsRecomputer,
	hub *notify.Hub,
	readyGrace time.Duration,
) *OrderService {
	return &OrderService{
		store:      store,
		menu:       menu,
		sessions:   sessions,
		stats:      stats,
		hub:        hub,
		logger:     util.GetLogger(),
		now:        time.Now,
		readyGrace: readyGrace,
	}
}

// CreateOrderRequest represents a request to place an order
type CreateOrderRequest struct {
	TableNumber      string             `json:"table_number" binding:"required"`
	Items            []OrderLineRequest `json:"items" binding:"required,min=1"`
	TotalAmountCents *int64             `json:"total_amount_cents,omitempty"`
}

// OrderLineRequest represents one line in an order request
type OrderLineRequest struct {
	MenuItemID   int64  `json:"menu_item_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required"`
	Instructions string `json:"instructions,omitempty"`
}

// CreateOrder places a new order: activates the table session, stamps the
// placement time, computes the total from live menu prices when the caller
// did not supply one, persists, refreshes stats and notifies subscribers.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.TableNumber == "" {
		util.OrdersFailedTotal.WithLabelValues("missing_table").Inc()
		return nil, fmt.Errorf("table number is required: %w", errs.ErrValidation)
	}
	if len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("no_items").Inc()
		return nil, fmt.Errorf("order needs at least one item: %w", errs.ErrValidation)
	}

	if err := s.sessions.StartSession(ctx, req.TableNumber); err != nil {
		return nil, fmt.Errorf("failed to start table session: %w", err)
	}

	order := &models.Order{
		TableNumber: req.TableNumber,
		Status:      models.OrderStatusWaiting,
		PlacedAt:    s.now(),
		Lines:       make([]models.OrderLine, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		order.Lines = append(order.Lines, models.OrderLine{
			MenuItemID:   item.MenuItemID,
			Quantity:     item.Quantity,
			Instructions: item.Instructions,
		})
	}

	if req.TotalAmountCents != nil {
		order.TotalAmountCents = *req.TotalAmountCents
	} else {
		total, err := s.computeTotalCents(ctx, order.Lines)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("menu_lookup").Inc()
			return nil, err
		}
		order.TotalAmountCents = total
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("table", order.TableNumber),
		zap.Int64("total_cents", order.TotalAmountCents))

	s.recomputeStats(ctx, order.PlacedAt)
	s.hub.OrderCreated(ctx, order)
	return order, nil
}

// computeTotalCents sums live menu prices over the order lines. Lines with a
// non-positive quantity or an unknown menu item contribute zero and are kept
// on the order; they are logged so the leniency is at least visible.
func (s *OrderService) computeTotalCents(ctx context.Context, lines []models.OrderLine) (int64, error) {
	var total float64
	for _, line := range lines {
		if line.Quantity <= 0 {
			s.logger.Warn("Skipping order line with non-positive quantity",
				zap.Int64("menu_item_id", line.MenuItemID),
				zap.Int("quantity", line.Quantity))
			continue
		}

		item, err := s.menu.GetMenuItem(ctx, line.MenuItemID)
		if errors.Is(err, errs.ErrNotFound) {
			s.logger.Warn("Skipping order line for unknown menu item",
				zap.Int64("menu_item_id", line.MenuItemID))
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to resolve menu item %d: %w", line.MenuItemID, err)
		}

		total += item.Price * float64(line.Quantity)
	}
	return int64(math.Round(total * 100)), nil
}

// AdvanceToInProgress confirms a waiting order into preparation
func (s *OrderService) AdvanceToInProgress(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.advance(ctx, orderID, models.OrderStatusWaiting, models.OrderStatusInProgress, false)
}

// AdvanceToReady marks an in-progress order ready and stamps ReadyAt
func (s *OrderService) AdvanceToReady(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.advance(ctx, orderID, models.OrderStatusInProgress, models.OrderStatusReady, true)
}

// AdvanceToCompleted closes out a ready order
func (s *OrderService) AdvanceToCompleted(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.advance(ctx, orderID, models.OrderStatusReady, models.OrderStatusCompleted, false)
}

// advance applies one forward transition via compare-and-swap on the prior
// status, so a concurrent sweep and a manual transition on the same order
// cannot both apply. Exactly one caller wins; the loser gets
// ErrPreconditionFailed.
func (s *OrderService) advance(ctx context.Context, orderID int64, from, to string, stampReady bool) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.advance")
	defer span.End()

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var readyAt *time.Time
	if stampReady {
		t := s.now()
		readyAt = &t
	}

	swapped, err := s.store.AdvanceOrderStatus(ctx, orderID, from, to, readyAt)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, fmt.Errorf("order %d cannot move from %s to %s: %w",
			orderID, order.Status, to, errs.ErrPreconditionFailed)
	}

	order.Status = to
	if readyAt != nil {
		order.ReadyAt = readyAt
	}

	util.OrderTransitionsTotal.WithLabelValues(to).Inc()
	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", from),
		zap.String("to", to))

	s.recomputeStats(ctx, order.PlacedAt)
	s.hub.OrderStatusChanged(ctx, order)
	return order, nil
}

// SweepStale promotes READY orders whose ReadyAt is older than the grace
// period to COMPLETED, following the same persist+recompute+notify contract
// as an explicit transition. Returns the number of promoted orders.
func (s *OrderService) SweepStale(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SweepStale")
	defer span.End()

	readyOrders, err := s.store.ListOrdersByStatus(ctx, models.OrderStatusReady)
	if err != nil {
		return 0, fmt.Errorf("failed to list ready orders: %w", err)
	}

	cutoff := s.now().Add(-s.readyGrace)
	promoted := 0
	for i := range readyOrders {
		order := &readyOrders[i]
		if order.ReadyAt == nil || !order.ReadyAt.Before(cutoff) {
			continue
		}

		swapped, err := s.store.AdvanceOrderStatus(ctx, order.ID,
			models.OrderStatusReady, models.OrderStatusCompleted, nil)
		if err != nil {
			s.logger.Error("Sweep failed to complete order",
				zap.Int64("order_id", order.ID), zap.Error(err))
			continue
		}
		if !swapped {
			// Lost the race to an explicit transition; that caller
			// already notified.
			continue
		}

		order.Status = models.OrderStatusCompleted
		promoted++
		util.SweepPromotionsTotal.Inc()
		util.OrderTransitionsTotal.WithLabelValues(models.OrderStatusCompleted).Inc()
		s.logger.Info("Sweep auto-completed stale ready order", zap.Int64("order_id", order.ID))

		s.recomputeStats(ctx, order.PlacedAt)
		s.hub.OrderStatusChanged(ctx, order)
	}

	return promoted, nil
}

// recomputeStats refreshes the stats row for the order's date. The order
// mutation is already durable at this point, so a recompute failure is
// logged as a warning, never rolled back.
func (s *OrderService) recomputeStats(ctx context.Context, placedAt time.Time) {
	if _, err := s.stats.RecomputeForDate(ctx, placedAt); err != nil {
		s.logger.Warn("Stats recompute failed after order mutation",
			zap.Time("date", placedAt), zap.Error(err))
	}
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// ListOrders retrieves all orders
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.ListOrders(ctx)
}

// ListByStatus retrieves orders with the given status
func (s *OrderService) ListByStatus(ctx context.Context, status string) ([]models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("unknown order status %q: %w", status, errs.ErrValidation)
	}
	return s.store.ListOrdersByStatus(ctx, status)
}

// ListByTable retrieves orders for a table, newest first
func (s *OrderService) ListByTable(ctx context.Context, tableNumber string) ([]models.Order, error) {
	return s.store.ListOrdersByTable(ctx, tableNumber)
}

// KitchenQueue summarizes the orders needing kitchen attention
type KitchenQueue struct {
	Count           int            `json:"count"`
	PendingCount    int            `json:"pending_count"`
	InProgressCount int            `json:"in_progress_count"`
	Pending         []models.Order `json:"pending"`
	InProgress      []models.Order `json:"in_progress"`
}

// GetKitchenQueue returns pending and in-progress orders for the kitchen
// dashboard
func (s *OrderService) GetKitchenQueue(ctx context.Context) (*KitchenQueue, error) {
	pending, err := s.store.ListOrdersByStatus(ctx, models.OrderStatusWaiting)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.store.ListOrdersByStatus(ctx, models.OrderStatusInProgress)
	if err != nil {
		return nil, err
	}

	return &KitchenQueue{
		Count:           len(pending) + len(inProgress),
		PendingCount:    len(pending),
		InProgressCount: len(inProgress),
		Pending:         pending,
		InProgress:      inProgress,
	}, nil
}
