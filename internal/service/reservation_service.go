package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fersal/internal/model"
	"fersal/internal/repository"

	"github.com/rs/zerolog"
)

// reservationService implements ReservationService. Reservation state is kept
// per session and never persisted. The reserved map indexes held voucher codes
// across all sessions so a voucher held by one session is invisible to every
// other session's pick.
type reservationService struct {
	repo   repository.VoucherRepository
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*model.Reservation
	reserved map[string]string // voucher code -> holding session
}

// NewReservationService creates a new reservation service.
func NewReservationService(repo repository.VoucherRepository, logger zerolog.Logger) ReservationService {
	return &reservationService{
		repo:     repo,
		logger:   logger.With().Str("service", "reservation").Logger(),
		now:      time.Now,
		sessions: make(map[string]*model.Reservation),
		reserved: make(map[string]string),
	}
}

// Reserve picks one un-redeemed voucher of the given denomination and holds
// it for the session.
func (s *reservationService) Reserve(ctx context.Context, sessionID string, denom model.Denomination) (*model.Reservation, error) {
	if !denom.Valid() {
		return nil, model.ErrInvalidDenomination
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.sessions[sessionID]; ok {
		s.logger.Warn().
			Str("session_id", sessionID).
			Str("held_code", held.Voucher.Code).
			Msg("reserve rejected, session already holds a voucher")
		return nil, model.ErrReservationHeld
	}

	// Codes held by other sessions are not yet redeemed in the ledger, so the
	// pick must exclude them explicitly.
	exclude := make([]string, 0, len(s.reserved))
	for code := range s.reserved {
		exclude = append(exclude, code)
	}

	voucher, err := s.repo.FindFirstAvailable(ctx, denom.String(), exclude)
	if err != nil {
		s.logger.Error().Err(err).Str("amount", denom.String()).Msg("failed to pick voucher")
		return nil, fmt.Errorf("failed to reserve voucher: %w", err)
	}
	if voucher == nil {
		s.logger.Info().Str("amount", denom.String()).Msg("no unused voucher of requested denomination")
		return nil, model.ErrNoVoucherAvailable
	}

	reservation := &model.Reservation{
		SessionID:   sessionID,
		Voucher:     voucher,
		PresentedAt: s.now(),
	}
	s.sessions[sessionID] = reservation
	s.reserved[voucher.Code] = sessionID

	s.logger.Info().
		Str("session_id", sessionID).
		Str("code", voucher.Code).
		Str("amount", voucher.Amount).
		Msg("voucher reserved")

	return reservation, nil
}

// ConfirmUsed marks the session's held voucher redeemed and returns the
// session to idle. The ledger update is conditional on the voucher still
// being unused, so a duplicated confirm trigger can never redeem twice.
func (s *reservationService) ConfirmUsed(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	reservation, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug().Str("session_id", sessionID).Msg("confirm with no held reservation, ignored")
		return nil
	}
	// The session goes idle before the ledger write: a re-fired confirm
	// trigger then hits the no-op path above.
	delete(s.sessions, sessionID)
	delete(s.reserved, reservation.Voucher.Code)
	s.mu.Unlock()

	updated, err := s.repo.MarkUsed(ctx, reservation.Voucher.Code, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("code", reservation.Voucher.Code).Msg("failed to mark voucher used")
		return fmt.Errorf("failed to confirm redemption: %w", err)
	}

	if !updated {
		s.logger.Warn().
			Str("session_id", sessionID).
			Str("code", reservation.Voucher.Code).
			Msg("voucher was already redeemed, nothing to confirm")
		return nil
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("code", reservation.Voucher.Code).
		Msg("voucher redeemed")

	return nil
}

// Release discards the session's held reservation without touching the
// ledger; the voucher stays available.
func (s *reservationService) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.sessions[sessionID]
	if !ok {
		s.logger.Debug().Str("session_id", sessionID).Msg("release with no held reservation, ignored")
		return
	}

	delete(s.sessions, sessionID)
	delete(s.reserved, reservation.Voucher.Code)
	s.logger.Info().
		Str("session_id", sessionID).
		Str("code", reservation.Voucher.Code).
		Msg("reservation released")
}
