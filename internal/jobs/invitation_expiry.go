// Package jobs contains the background loops that run alongside the HTTP
// server. The invitation expiry sweeper periodically flips stale pending
// invitations to expired. It is purely corrective: every read/accept/decline
// path performs the same check lazily, so correctness never depends on the
// sweep having run — the sweep just keeps listings and counts honest without
// waiting for someone to touch each invitation.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/freelancehub/freelancehub/internal/services"
	"github.com/freelancehub/freelancehub/internal/telemetry"
)

// InvitationExpirySweeper periodically marks stale pending invitations expired.
type InvitationExpirySweeper struct {
	invitations *services.InvitationService
	interval    time.Duration
	stopChan    chan struct{}
}

// NewInvitationExpirySweeper creates a new sweeper.
// intervalMinutes controls how often the sweep runs (default 60m).
func NewInvitationExpirySweeper(invitations *services.InvitationService, intervalMinutes int) *InvitationExpirySweeper {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return &InvitationExpirySweeper{
		invitations: invitations,
		interval:    time.Duration(intervalMinutes) * time.Minute,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the background sweep loop. It runs an initial sweep immediately,
// then repeats on the configured interval. The loop exits when ctx is cancelled
// or Stop() is called.
func (s *InvitationExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("invitation expiry sweeper started", "interval", s.interval)

	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopChan:
			slog.Info("invitation expiry sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("invitation expiry sweeper context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (s *InvitationExpirySweeper) Stop() {
	close(s.stopChan)
}

// runSweep performs one batch expiration pass.
func (s *InvitationExpirySweeper) runSweep(ctx context.Context) {
	n, err := s.invitations.MarkExpiredInvitations(ctx)
	if err != nil {
		telemetry.ExpirySweepErrorsTotal.Inc()
		slog.Error("invitation expiry sweep failed", "error", err)
		return
	}

	telemetry.ExpirySweepRunsTotal.Inc()
	if n > 0 {
		telemetry.InvitationsExpiredTotal.Add(float64(n))
		slog.Info("invitation expiry sweep completed", "expired", n)
	}
}
