package service

import (
	"context"
	"time"

	"smartorder/internal/models"
	"smartorder/internal/notify"
	"smartorder/internal/util"

	"go.uber.org/zap"
)

const defaultHelpReason = "Need assistance"

// HelpRequestStore is the persistence boundary for help requests
type HelpRequestStore interface {
	CreateHelpRequest(ctx context.Context, req *models.HelpRequest) error
	GetHelpRequest(ctx context.Context, id int64) (*models.HelpRequest, error)
	ListActiveHelpRequests(ctx context.Context) ([]models.HelpRequest, error)
	ResolveHelpRequest(ctx context.Context, id int64) error
}

// HelpService manages customer assistance requests and their waiter-facing
// notifications.
type HelpService struct {
	store  HelpRequestStore
	hub    *notify.Hub
	logger *zap.Logger
	now    func() time.Time
}

// NewHelpService creates a new help request service
func NewHelpService(store HelpRequestStore, hub *notify.Hub) *HelpService {
	return &HelpService{
		store:  store,
		hub:    hub,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// Create records a help request for a table, defaulting the reason, and
// broadcasts it to waiters
func (s *HelpService) Create(ctx context.Context, tableNumber, reason string) (*models.HelpRequest, error) {
	if reason == "" {
		reason = defaultHelpReason
	}

	req := &models.HelpRequest{
		TableNumber: tableNumber,
		Reason:      reason,
		RequestTime: s.now(),
		Resolved:    false,
	}
	if err := s.store.CreateHelpRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Help request created",
		zap.Int64("id", req.ID), zap.String("table", tableNumber))
	s.hub.HelpRequestChanged(ctx, models.EventTypeHelpRequestCreated, req)
	return req, nil
}

// Get retrieves a help request by id
func (s *HelpService) Get(ctx context.Context, id int64) (*models.HelpRequest, error) {
	return s.store.GetHelpRequest(ctx, id)
}

// ListActive lists unresolved help requests
func (s *HelpService) ListActive(ctx context.Context) ([]models.HelpRequest, error) {
	return s.store.ListActiveHelpRequests(ctx)
}

// Resolve marks a help request handled and broadcasts the update
func (s *HelpService) Resolve(ctx context.Context, id int64) (*models.HelpRequest, error) {
	if err := s.store.ResolveHelpRequest(ctx, id); err != nil {
		return nil, err
	}
	req, err := s.store.GetHelpRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Help request resolved", zap.Int64("id", id))
	s.hub.HelpRequestChanged(ctx, models.EventTypeHelpRequestResolved, req)
	return req, nil
}
