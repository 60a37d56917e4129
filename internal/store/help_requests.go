package store

import (
	"context"
	"database/sql"
	"fmt"

	"smartorder/internal/errs"
	"smartorder/internal/models"
)

// CreateHelpRequest inserts a new help request
func (s *Store) CreateHelpRequest(ctx context.Context, req *models.HelpRequest) error {
	query := `
		INSERT INTO help_requests (table_number, reason, request_time, resolved)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return s.db.GetContext(ctx, &req.ID, query,
		req.TableNumber, req.Reason, req.RequestTime, req.Resolved)
}

// GetHelpRequest retrieves a help request by ID
func (s *Store) GetHelpRequest(ctx context.Context, id int64) (*models.HelpRequest, error) {
	var req models.HelpRequest
	err := s.db.GetContext(ctx, &req, "SELECT * FROM help_requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("help request %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListActiveHelpRequests retrieves all unresolved help requests
func (s *Store) ListActiveHelpRequests(ctx context.Context) ([]models.HelpRequest, error) {
	var reqs []models.HelpRequest
	err := s.db.SelectContext(ctx, &reqs,
		"SELECT * FROM help_requests WHERE resolved = FALSE ORDER BY request_time")
	return reqs, err
}

// ResolveHelpRequest marks a help request resolved
func (s *Store) ResolveHelpRequest(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE help_requests SET resolved = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("help request %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
