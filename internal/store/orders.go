package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smartorder/internal/errs"
	"smartorder/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrder inserts a new order and its lines in one transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (table_number, status, placed_at, total_amount_cents, prep_time_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err = tx.GetContext(ctx, &order.ID, query,
		order.TableNumber, order.Status, order.PlacedAt, order.TotalAmountCents, order.PrepTimeMinutes)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err = tx.GetContext(ctx, &line.ID,
			`INSERT INTO order_lines (order_id, menu_item_id, quantity, instructions)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			line.OrderID, line.MenuItemID, line.Quantity, line.Instructions)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrder retrieves an order with its lines by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachLines(ctx, []*models.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders retrieves all orders with their lines
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY placed_at DESC")
	if err != nil {
		return nil, err
	}
	return orders, s.attachLinesSlice(ctx, orders)
}

// ListOrdersByStatus retrieves orders with the given status
func (s *Store) ListOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY placed_at", status)
	if err != nil {
		return nil, err
	}
	return orders, s.attachLinesSlice(ctx, orders)
}

// ListOrdersByTable retrieves orders for a table, newest first
func (s *Store) ListOrdersByTable(ctx context.Context, tableNumber string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE table_number = $1 ORDER BY placed_at DESC", tableNumber)
	if err != nil {
		return nil, err
	}
	return orders, s.attachLinesSlice(ctx, orders)
}

// ListOrdersPlacedBetween retrieves orders with placed_at in [from, to)
func (s *Store) ListOrdersPlacedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE placed_at >= $1 AND placed_at < $2 ORDER BY placed_at", from, to)
	if err != nil {
		return nil, err
	}
	return orders, s.attachLinesSlice(ctx, orders)
}

// AdvanceOrderStatus applies a compare-and-swap status transition: the row is
// updated only if its current status still matches from. Returns false when
// the swap did not apply, which callers use to detect a lost race or an
// invalid prior state. readyAt, when non-nil, stamps the ready_at column.
func (s *Store) AdvanceOrderStatus(ctx context.Context, id int64, from, to string, readyAt *time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, ready_at = COALESCE($2, ready_at)
		 WHERE id = $3 AND status = $4`,
		to, readyAt, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to advance order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) attachLinesSlice(ctx context.Context, orders []models.Order) error {
	ptrs := make([]*models.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	return s.attachLines(ctx, ptrs)
}

func (s *Store) attachLines(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Lines = []models.OrderLine{}
	}

	query, args, err := sqlx.In("SELECT * FROM order_lines WHERE order_id IN (?) ORDER BY id", ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var lines []models.OrderLine
	if err := s.db.SelectContext(ctx, &lines, query, args...); err != nil {
		return err
	}

	for _, line := range lines {
		if o, ok := byID[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return nil
}
