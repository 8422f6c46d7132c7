package scheduler

import (
	"context"
	"sync"
	"time"

	appPayment "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"go.uber.org/zap"
)

// OverdueSweeper periodically walks all active groups and recomputes
// their roster status, logging how many students owe money. The sweep
// also warms the roster cache, so the first dashboard hit after a quiet
// period does not pay the full recompute cost.
type OverdueSweeper struct {
	status    *appPayment.StatusService
	groups    schooling.GroupRepository
	logger    *zap.Logger
	config    OverdueSweeperConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// OverdueSweeperConfig holds configuration for the overdue sweeper
type OverdueSweeperConfig struct {
	// Enabled determines if the sweeper is active
	Enabled bool

	// Interval between sweeps
	Interval time.Duration

	// SweepTimeout is the maximum time for one full sweep
	SweepTimeout time.Duration
}

// DefaultOverdueSweeperConfig returns default configuration
func DefaultOverdueSweeperConfig() OverdueSweeperConfig {
	return OverdueSweeperConfig{
		Enabled:      false,
		Interval:     6 * time.Hour,
		SweepTimeout: 10 * time.Minute,
	}
}

// NewOverdueSweeper creates a new overdue sweeper
func NewOverdueSweeper(
	status *appPayment.StatusService,
	groups schooling.GroupRepository,
	logger *zap.Logger,
	config OverdueSweeperConfig,
) *OverdueSweeper {
	if config.Interval <= 0 {
		config.Interval = 6 * time.Hour
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = 10 * time.Minute
	}
	return &OverdueSweeper{
		status: status,
		groups: groups,
		logger: logger,
		config: config,
	}
}

// Start starts the overdue sweeper
func (s *OverdueSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Overdue sweeper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Overdue sweeper started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the sweeper
func (s *OverdueSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *OverdueSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Overdue sweep loop stopping")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one full pass over all active groups. Exposed so operators
// can trigger it out of schedule.
func (s *OverdueSweeper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	started := time.Now()
	groups, err := s.groups.FindAllActive(ctx)
	if err != nil {
		s.logger.Error("Overdue sweep failed to list groups", zap.Error(err))
		return
	}

	var swept, failed, underpaid int
	for _, group := range groups {
		if ctx.Err() != nil {
			s.logger.Warn("Overdue sweep aborted",
				zap.Int("groups_swept", swept),
				zap.Error(ctx.Err()))
			return
		}

		roster, err := s.status.GetGroupStatus(ctx, group.ID)
		if err != nil {
			failed++
			s.logger.Warn("Overdue sweep failed for group",
				zap.String("group_id", group.ID.String()),
				zap.Error(err))
			continue
		}
		swept++

		var owing int
		for _, entry := range roster {
			if entry.Underpaid {
				owing++
			}
		}
		underpaid += owing
		if owing > 0 {
			s.logger.Info("Group has students owing money",
				zap.String("group_id", group.ID.String()),
				zap.String("group_name", group.Name),
				zap.Int("underpaid_students", owing))
		}
	}

	s.logger.Info("Overdue sweep finished",
		zap.Int("groups_swept", swept),
		zap.Int("groups_failed", failed),
		zap.Int("underpaid_students", underpaid),
		zap.Duration("took", time.Since(started)),
	)
}

// IsRunning returns whether the sweeper is currently running
func (s *OverdueSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
