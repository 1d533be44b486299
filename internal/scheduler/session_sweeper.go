package scheduler

import (
	"context"
	"time"

	"github.com/digitalghar/storefront/config"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

const purgeTimeout = 30 * time.Second

// Evicter drops idle in-memory sessions. Satisfied by *session.Manager.
type Evicter interface {
	Evict(idle time.Duration) int
}

// SessionSweeper evicts idle sessions and purges persisted session state that has not
// been written within the retention window.
type SessionSweeper struct {
	cron      *cron.Cron
	spec      string
	sessions  Evicter
	purger    storage.Purger // nil when the backend expires entries itself
	idleTTL   time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewSessionSweeper(sessions Evicter, backend storage.Backend, cfg config.SessionConfig) *SessionSweeper {
	s := &SessionSweeper{
		cron:      cron.New(),
		spec:      cfg.SweepSpec,
		sessions:  sessions,
		idleTTL:   cfg.IdleTTL,
		retention: cfg.Retention,
		now:       time.Now,
	}
	if purger, ok := backend.(storage.Purger); ok {
		s.purger = purger
	}
	return s
}

// Start schedules Sweep on the configured cron spec.
func (s *SessionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for session sweep", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session sweeper started", map[string]interface{}{
		"spec":      s.spec,
		"idle_ttl":  s.idleTTL.String(),
		"retention": s.retention.String(),
	})

	return nil
}

// Sweep runs one eviction and purge pass.
func (s *SessionSweeper) Sweep(ctx context.Context) {
	evicted := 0
	if s.idleTTL > 0 {
		evicted = s.sessions.Evict(s.idleTTL)
	}

	var purged int64
	if s.purger != nil && s.retention > 0 {
		n, err := s.purger.PurgeBefore(ctx, s.now().Add(-s.retention))
		if err != nil {
			logger.Error("Failed to purge stale session state", err)
		}
		purged = n
	}

	if evicted > 0 || purged > 0 {
		logger.Info("Swept sessions", map[string]interface{}{
			"evicted": evicted,
			"purged":  purged,
		})
	}
}

// Stop waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	logger.Info("Stopping session sweeper...")
	<-s.cron.Stop().Done()
	logger.Info("Session sweeper stopped")
}
