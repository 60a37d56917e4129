package store

import (
	"context"
	"database/sql"
	"fmt"

	"smartorder/internal/errs"
	"smartorder/internal/models"
)

// GetSession retrieves the table session for a table number
func (s *Store) GetSession(ctx context.Context, tableNumber string) (*models.TableSession, error) {
	var session models.TableSession
	err := s.db.GetContext(ctx, &session,
		"SELECT * FROM table_sessions WHERE table_number = $1", tableNumber)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("table session %s: %w", tableNumber, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ActivateSession activates the session for a table, inserting the row on
// first use. The update half only fires when the session is inactive, so
// concurrent activations resolve to exactly one swap. Returns whether this
// call performed the activation.
func (s *Store) ActivateSession(ctx context.Context, tableNumber string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO table_sessions (table_number, session_active, bill_processed)
		VALUES ($1, TRUE, FALSE)
		ON CONFLICT (table_number)
		DO UPDATE SET session_active = TRUE, bill_processed = FALSE
		WHERE table_sessions.session_active = FALSE`,
		tableNumber)
	if err != nil {
		return false, fmt.Errorf("failed to activate table session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkBillProcessed flips bill_processed for a table, conditionally so a
// second caller sees zero rows instead of re-applying. Returns whether this
// call flipped it.
func (s *Store) MarkBillProcessed(ctx context.Context, tableNumber string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE table_sessions SET bill_processed = TRUE
		WHERE table_number = $1 AND bill_processed = FALSE`,
		tableNumber)
	if err != nil {
		return false, fmt.Errorf("failed to mark bill processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeactivateSession closes an active session whose bill has been processed.
// Returns whether this call closed it.
func (s *Store) DeactivateSession(ctx context.Context, tableNumber string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE table_sessions SET session_active = FALSE
		WHERE table_number = $1 AND session_active = TRUE AND bill_processed = TRUE`,
		tableNumber)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate table session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ActiveTables retrieves the table numbers of all active sessions
func (s *Store) ActiveTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := s.db.SelectContext(ctx, &tables,
		"SELECT table_number FROM table_sessions WHERE session_active = TRUE ORDER BY table_number")
	return tables, err
}
