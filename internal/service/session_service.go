package service

import (
	"context"
	"errors"
	"fmt"

	"smartorder/internal/errs"
	"smartorder/internal/models"
	"smartorder/internal/notify"
	"smartorder/internal/util"

	"go.uber.org/zap"
)

// SessionStore is the persistence boundary for table sessions. The three
// mutations are conditional writes that report whether this caller applied
// the change, so concurrent callers resolve at the store rather than through
// a read-then-write race.
type SessionStore interface {
	GetSession(ctx context.Context, tableNumber string) (*models.TableSession, error)
	ActivateSession(ctx context.Context, tableNumber string) (bool, error)
	MarkBillProcessed(ctx context.Context, tableNumber string) (bool, error)
	DeactivateSession(ctx context.Context, tableNumber string) (bool, error)
	ActiveTables(ctx context.Context) ([]string, error)
}

// ActiveTableMirror keeps a fast read copy of the active table set, e.g. in
// Redis. Mirror failures are logged and never fail the mutation.
type ActiveTableMirror interface {
	AddActiveTable(ctx context.Context, tableNumber string) error
	RemoveActiveTable(ctx context.Context, tableNumber string) error
}

// SessionService manages the table session lifecycle: activation on first
// order, bill processing, and session close.
type SessionService struct {
	store  SessionStore
	hub    *notify.Hub
	mirror ActiveTableMirror
	logger *zap.Logger
}

// NewSessionService creates a new session service. mirror may be nil.
func NewSessionService(store SessionStore, hub *notify.Hub, mirror ActiveTableMirror) *SessionService {
	return &SessionService{
		store:  store,
		hub:    hub,
		mirror: mirror,
		logger: util.GetLogger(),
	}
}

// StartSession activates the session for a table, creating it on first use.
// Idempotent: a second call on an already-active table is a no-op and emits
// no duplicate event.
func (s *SessionService) StartSession(ctx context.Context, tableNumber string) error {
	ctx, span := util.StartSpan(ctx, "SessionService.StartSession")
	defer span.End()

	if tableNumber == "" {
		return fmt.Errorf("table number is required: %w", errs.ErrValidation)
	}

	activated, err := s.store.ActivateSession(ctx, tableNumber)
	if err != nil {
		return fmt.Errorf("failed to activate table session: %w", err)
	}
	if !activated {
		// already active, possibly via a concurrent activation; the winner
		// emitted the event
		return nil
	}

	util.SessionsStartedTotal.Inc()
	s.logger.Info("Table session started", zap.String("table", tableNumber))

	s.mirrorAdd(ctx, tableNumber)
	s.hub.SessionStarted(ctx, tableNumber)
	return nil
}

// SessionStatus reports whether a table's session is active, false when the
// table has never had a session.
func (s *SessionService) SessionStatus(ctx context.Context, tableNumber string) (bool, error) {
	session, err := s.store.GetSession(ctx, tableNumber)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return session.SessionActive, nil
}

// ProcessBill marks the table's bill as processed. No-op when already
// processed; NotFound when the session does not exist.
func (s *SessionService) ProcessBill(ctx context.Context, tableNumber string) error {
	ctx, span := util.StartSpan(ctx, "SessionService.ProcessBill")
	defer span.End()

	if _, err := s.store.GetSession(ctx, tableNumber); err != nil {
		return err
	}

	processed, err := s.store.MarkBillProcessed(ctx, tableNumber)
	if err != nil {
		return err
	}
	if !processed {
		return nil
	}

	s.logger.Info("Bill processed", zap.String("table", tableNumber))
	s.hub.BillProcessed(ctx, tableNumber)
	return nil
}

// EndSession closes the table's session. The bill must be processed first;
// ending an already-inactive session is a successful no-op.
func (s *SessionService) EndSession(ctx context.Context, tableNumber string) error {
	ctx, span := util.StartSpan(ctx, "SessionService.EndSession")
	defer span.End()

	session, err := s.store.GetSession(ctx, tableNumber)
	if err != nil {
		return err
	}

	if !session.SessionActive {
		return nil
	}
	if !session.BillProcessed {
		return fmt.Errorf("bill must be processed before ending session for table %s: %w",
			tableNumber, errs.ErrPreconditionFailed)
	}

	deactivated, err := s.store.DeactivateSession(ctx, tableNumber)
	if err != nil {
		return err
	}
	if !deactivated {
		// a concurrent caller closed it first
		return nil
	}

	util.SessionsEndedTotal.Inc()
	s.logger.Info("Table session ended", zap.String("table", tableNumber))

	s.mirrorRemove(ctx, tableNumber)
	s.hub.SessionEnded(ctx, tableNumber)
	return nil
}

// ProcessAndEndSession processes the bill and then ends the session,
// returning the first failure.
func (s *SessionService) ProcessAndEndSession(ctx context.Context, tableNumber string) error {
	if err := s.ProcessBill(ctx, tableNumber); err != nil {
		return err
	}
	return s.EndSession(ctx, tableNumber)
}

// ActiveTables lists the table numbers of all active sessions
func (s *SessionService) ActiveTables(ctx context.Context) ([]string, error) {
	return s.store.ActiveTables(ctx)
}

func (s *SessionService) mirrorAdd(ctx context.Context, tableNumber string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.AddActiveTable(ctx, tableNumber); err != nil {
		s.logger.Warn("Failed to mirror active table", zap.String("table", tableNumber), zap.Error(err))
	}
}

func (s *SessionService) mirrorRemove(ctx context.Context, tableNumber string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.RemoveActiveTable(ctx, tableNumber); err != nil {
		s.logger.Warn("Failed to unmirror active table", zap.String("table", tableNumber), zap.Error(err))
	}
}
