// Package notify fans domain change events out to hierarchical channels.
// The transport behind the Publisher interface is an external collaborator;
// delivery is at-most-once and publish failures never fail the mutation that
// triggered them.
package notify

import (
	"context"
	"fmt"
	"time"

	"smartorder/internal/models"
	"smartorder/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Channel names. Table-scoped channels carry the table number suffix.
const (
	ChannelActiveTables  = "active-tables"
	ChannelKitchenOrders = "kitchen-orders"
	ChannelWaiterOrders  = "waiter-orders"
	ChannelStatsUpdates  = "stats-updates"
	ChannelHelpRequests  = "help-requests"
)

// OrdersChannel returns the per-table order channel name
func OrdersChannel(tableNumber string) string {
	return fmt.Sprintf("orders/%s", tableNumber)
}

// TableSessionChannel returns the per-table session channel name
func TableSessionChannel(tableNumber string) string {
	return fmt.Sprintf("table-session/%s", tableNumber)
}

// BillProcessedChannel returns the per-table bill channel name
func BillProcessedChannel(tableNumber string) string {
	return fmt.Sprintf("bill-processed/%s", tableNumber)
}

// SessionEndedChannel returns the per-table session-end channel name
func SessionEndedChannel(tableNumber string) string {
	return fmt.Sprintf("session-ended/%s", tableNumber)
}

// Publisher is the transport the hub publishes through
type Publisher interface {
	Publish(ctx context.Context, channel string, event interface{}) error
}

// Hub builds typed events and publishes them through a Publisher
type Hub struct {
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewHub creates a new notification hub
func NewHub(publisher Publisher) *Hub {
	return &Hub{
		publisher: publisher,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

func (h *Hub) base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: h.now(),
	}
}

func (h *Hub) publish(ctx context.Context, channel string, event interface{}) {
	if err := h.publisher.Publish(ctx, channel, event); err != nil {
		util.NotifyPublishFailures.WithLabelValues(channel).Inc()
		h.logger.Warn("Failed to publish event",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

// OrderCreated announces a newly placed order to the table channel and the
// kitchen dashboard
func (h *Hub) OrderCreated(ctx context.Context, order *models.Order) {
	h.publish(ctx, OrdersChannel(order.TableNumber),
		&models.OrderEvent{BaseEvent: h.base(models.EventTypeOrderUpdate), Order: order})
	h.publish(ctx, ChannelKitchenOrders,
		&models.OrderEvent{BaseEvent: h.base(models.EventTypeNewOrder), Order: order})
}

// OrderStatusChanged announces a status transition to the table channel, and
// for READY also to the kitchen and waiter dashboards
func (h *Hub) OrderStatusChanged(ctx context.Context, order *models.Order) {
	h.publish(ctx, OrdersChannel(order.TableNumber),
		&models.OrderEvent{BaseEvent: h.base(models.EventTypeStatusChange), Order: order})

	if order.Status == models.OrderStatusReady {
		h.publish(ctx, ChannelKitchenOrders,
			&models.OrderEvent{BaseEvent: h.base(models.EventTypeReady), Order: order})
		h.publish(ctx, ChannelWaiterOrders,
			&models.OrderEvent{BaseEvent: h.base(models.EventTypeReady), Order: order})
	}
}

// SessionStarted announces a session activation to the global active-tables
// channel and the table's session channel
func (h *Hub) SessionStarted(ctx context.Context, tableNumber string) {
	event := &models.TableEvent{BaseEvent: h.base(models.EventTypeSessionStarted), TableNumber: tableNumber}
	h.publish(ctx, ChannelActiveTables, event)
	h.publish(ctx, TableSessionChannel(tableNumber), event)
}

// SessionEnded announces a session close to the global active-tables channel
// and the table's session-ended channel
func (h *Hub) SessionEnded(ctx context.Context, tableNumber string) {
	event := &models.TableEvent{BaseEvent: h.base(models.EventTypeSessionEnded), TableNumber: tableNumber}
	h.publish(ctx, ChannelActiveTables, event)
	h.publish(ctx, SessionEndedChannel(tableNumber), event)
}

// BillProcessed announces bill settlement to the table's bill channel
func (h *Hub) BillProcessed(ctx context.Context, tableNumber string) {
	h.publish(ctx, BillProcessedChannel(tableNumber),
		&models.TableEvent{BaseEvent: h.base(models.EventTypeBillProcessed), TableNumber: tableNumber})
}

// StatsUpdated pushes a freshly recomputed stats row to the dashboard channel
func (h *Hub) StatsUpdated(ctx context.Context, stats *models.Stats) {
	h.publish(ctx, ChannelStatsUpdates,
		&models.StatsEvent{BaseEvent: h.base(models.EventTypeStatsUpdated), Stats: stats})
}

// HelpRequestChanged announces a created or resolved help request
func (h *Hub) HelpRequestChanged(ctx context.Context, eventType string, req *models.HelpRequest) {
	h.publish(ctx, ChannelHelpRequests,
		&models.HelpRequestEvent{BaseEvent: h.base(eventType), Request: req})
}
