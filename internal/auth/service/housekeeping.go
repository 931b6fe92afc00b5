package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/session"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
)

// HousekeepingService periodically cleans up expired database records
// to prevent unbounded growth of oauth_states and remember_tokens, and
// sweeps expired in-memory sessions.
type HousekeepingService struct {
	Store    store.Store
	Sessions *session.Manager
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, sessions *session.Manager, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual deletion of expired records.
// Each deletion is independent - failures in one won't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.Logger.Info("starting housekeeping cleanup")

	if err := s.Store.OAuthStates().DeleteExpiredOAuthStates(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired oauth states", "error", err)
	} else {
		s.Logger.Debug("deleted expired oauth states")
	}

	if err := s.Store.RememberTokens().DeleteExpiredRememberTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired remember tokens", "error", err)
	} else {
		s.Logger.Debug("deleted expired remember tokens")
	}

	if s.Sessions != nil {
		swept := s.Sessions.Sweep()
		s.Logger.Debug("swept expired sessions", "count", swept)
	}

	s.Logger.Info("housekeeping cleanup completed")
}
