// Package admission is the only place where an event's attendee count changes.
// Each admission runs as one transaction: lock the event row, check capacity,
// append to the ledger, bump the counter.
package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-charity/internal/database"
	"ms-charity/internal/logger"
	"ms-charity/internal/models"
)

// Tx is the set of writes available inside one admission transaction.
type Tx interface {
	// LockEvent reads the capacity fields and holds the row until commit.
	LockEvent(ctx context.Context, eventID int64) (*models.Event, error)
	AppendRegistration(ctx context.Context, reg *models.Registration) (int64, error)
	// AddAttendees reports false when the guarded update matched no row.
	AddAttendees(ctx context.Context, eventID int64, n int) (bool, error)
}

// Store runs fn in a transaction, committing only if fn returns nil.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Publisher interface {
	PublishRegistrationAdmitted(ctx context.Context, reg models.Registration, remainingSpots int) error
}

type Cache interface {
	Invalidate(ctx context.Context) error
}

type Result struct {
	RegistrationID int64
	RemainingSpots int
}

type Service struct {
	Store      Store
	Publisher  Publisher
	Cache      Cache
	Logger     *logger.Logger
	MaxRetries int
	Now        func() time.Time
}

func NewService(store Store, pub Publisher, cache Cache, log *logger.Logger, maxRetries int) *Service {
	return &Service{
		Store:      store,
		Publisher:  pub,
		Cache:      cache,
		Logger:     log,
		MaxRetries: maxRetries,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Admit records a registration if the event still has room for it.
func (s *Service) Admit(ctx context.Context, req models.RegistrationRequest) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	reg := models.Registration{
		EventID:          req.EventID,
		UserName:         strings.TrimSpace(req.UserName),
		ContactEmail:     strings.TrimSpace(req.ContactEmail),
		NumberOfTickets:  req.NumberOfTickets,
		RegistrationDate: s.Now(),
	}

	var (
		result *Result
		err    error
	)
	for attempt := 0; ; attempt++ {
		result, err = s.admitOnce(ctx, &reg)
		if err == nil {
			break
		}
		if !database.IsRetryable(err) {
			return nil, err
		}
		if attempt >= s.MaxRetries {
			s.Logger.Error("ADMISSION", fmt.Sprintf("[event %d] giving up after %d attempts: %v", req.EventID, attempt+1, err))
			return nil, fmt.Errorf("%w: %v", models.ErrTransient, err)
		}
		s.Logger.Warn("ADMISSION", fmt.Sprintf("[event %d] attempt %d conflicted, retrying: %v", req.EventID, attempt+1, err))
		if err := sleep(ctx, time.Duration(attempt+1)*20*time.Millisecond); err != nil {
			return nil, err
		}
		reg.RegistrationID = 0
	}

	s.Logger.LogAdmission(req.EventID, fmt.Sprintf("admitted registration %d for %d ticket(s), %d spot(s) left",
		result.RegistrationID, req.NumberOfTickets, result.RemainingSpots))
	s.afterCommit(ctx, reg, result.RemainingSpots)
	return result, nil
}

func (s *Service) admitOnce(ctx context.Context, reg *models.Registration) (*Result, error) {
	var result Result
	err := s.Store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		event, err := tx.LockEvent(ctx, reg.EventID)
		if err != nil {
			return err
		}

		newTotal := event.CurrentAttendees + reg.NumberOfTickets
		if newTotal > event.GoalAttendees {
			return &models.CapacityError{Requested: reg.NumberOfTickets, Remaining: event.Remaining()}
		}

		id, err := tx.AppendRegistration(ctx, reg)
		if err != nil {
			return err
		}

		ok, err := tx.AddAttendees(ctx, reg.EventID, reg.NumberOfTickets)
		if err != nil {
			return err
		}
		if !ok {
			// The lock should make this unreachable; the guard still refuses to oversell.
			return &models.CapacityError{Requested: reg.NumberOfTickets, Remaining: event.Remaining()}
		}

		result = Result{RegistrationID: id, RemainingSpots: event.GoalAttendees - newTotal}
		return nil
	})
	if err != nil {
		var capErr *models.CapacityError
		if errors.As(err, &capErr) {
			s.Logger.LogAdmission(reg.EventID, fmt.Sprintf("rejected %d ticket(s), %d spot(s) left", capErr.Requested, capErr.Remaining))
		}
		return nil, err
	}
	return &result, nil
}

// afterCommit never undoes an admission; its failures are only logged.
func (s *Service) afterCommit(ctx context.Context, reg models.Registration, remaining int) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("invalidate after registration %d: %v", reg.RegistrationID, err))
		}
	}
	if s.Publisher != nil {
		if err := s.Publisher.PublishRegistrationAdmitted(ctx, reg, remaining); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("registration %d not published: %v", reg.RegistrationID, err))
		}
	}
}

func validate(req models.RegistrationRequest) error {
	if req.EventID == 0 || strings.TrimSpace(req.UserName) == "" ||
		strings.TrimSpace(req.ContactEmail) == "" || req.NumberOfTickets == 0 {
		return models.NewValidationError("", "Missing required fields for registration.")
	}
	if req.EventID < 0 {
		return models.NewValidationError("EventID", "must be a positive integer")
	}
	if req.NumberOfTickets < 0 {
		return models.NewValidationError("NumberOfTickets", "must be a positive integer")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
