// Package scheduler hosts the bridge's background loops: the tight
// deposit/withdrawal pollers run on dedicated tickers, while low-frequency
// housekeeping goes through a shared gocron v2 scheduler.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages the housekeeping jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterHousekeepingJobs registers the periodic sweeps:
// - Expire deposit intents whose deadline passed without a matching transfer
// - Re-queue withdrawal requests abandoned mid-processing by a dead worker
func (m *SchedulerManager) RegisterHousekeepingJobs(
	expireDepositsJob BatchJob,
	reclaimWithdrawalsJob BatchJob,
	interval time.Duration,
) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runHousekeeping(ctx, expireDepositsJob, reclaimWithdrawalsJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("bridge", "expire-deposits", "reclaim-withdrawals"),
		gocron.WithName("bridge-housekeeping"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered housekeeping jobs", "interval", interval)
	return nil
}

func (m *SchedulerManager) runHousekeeping(
	ctx context.Context,
	expireDepositsJob BatchJob,
	reclaimWithdrawalsJob BatchJob,
) {
	startTime := biztime.NowUTC()

	expiredCount, err := expireDepositsJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("failed to expire deposit intents",
			"error", err,
			"duration", time.Since(startTime),
		)
	} else if expiredCount > 0 {
		m.logger.Infow("deposit intents expired",
			"count", expiredCount,
			"duration", time.Since(startTime),
		)
	}

	reclaimedCount, err := reclaimWithdrawalsJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("failed to reclaim stale withdrawals",
			"error", err,
			"duration", time.Since(startTime),
		)
	} else if reclaimedCount > 0 {
		m.logger.Infow("stale withdrawals reclaimed",
			"count", reclaimedCount,
			"duration", time.Since(startTime),
		)
	}
}

// Start begins executing registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started")
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	if err := m.scheduler.Shutdown(); err != nil {
		return err
	}

	m.started = false
	m.logger.Infow("scheduler manager stopped")
	return nil
}
