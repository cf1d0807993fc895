package scheduler

import (
	"context"
	"sync"
	"time"

	"tapbridge/internal/application/bridge/usecases"
	"tapbridge/internal/shared/goroutine"
	"tapbridge/internal/shared/logger"
)

// DepositMonitorScheduler drives the deposit poll loop: match inbound
// transfers against waiting intents and advance confirmation counts on
// pending ones.
type DepositMonitorScheduler struct {
	confirmDepositsUC *usecases.ConfirmDepositsUseCase
	logger            logger.Interface
	stopChan          chan struct{}
	stopOnce          sync.Once
	wg                sync.WaitGroup
	interval          time.Duration
	running           bool
	mu                sync.RWMutex
}

func NewDepositMonitorScheduler(
	confirmDepositsUC *usecases.ConfirmDepositsUseCase,
	interval time.Duration,
	logger logger.Interface,
) *DepositMonitorScheduler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DepositMonitorScheduler{
		confirmDepositsUC: confirmDepositsUC,
		logger:            logger,
		stopChan:          make(chan struct{}),
		interval:          interval,
	}
}

// Start starts the scheduler
func (s *DepositMonitorScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Infow("starting deposit monitor scheduler", "interval", s.interval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "deposit-monitor", func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	})
}

// Stop stops the scheduler gracefully
func (s *DepositMonitorScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Infow("stopping deposit monitor scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("deposit monitor scheduler stopped")
	})
}

// IsRunning returns whether the scheduler is running
func (s *DepositMonitorScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *DepositMonitorScheduler) runLoop(ctx context.Context) {
	// Run immediately on startup
	s.pollDeposits(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("deposit monitor scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.pollDeposits(ctx)
		}
	}
}

func (s *DepositMonitorScheduler) pollDeposits(ctx context.Context) {
	startTime := time.Now()

	results, err := s.confirmDepositsUC.Execute(ctx)
	if err != nil {
		s.logger.Errorw("deposit poll failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if len(results) == 0 {
		return
	}

	matched := 0
	confirmed := 0
	for _, r := range results {
		if r.Matched {
			matched++
		}
		if r.Confirmed {
			confirmed++
		}
	}

	s.logger.Infow("deposit poll completed",
		"matched", matched,
		"confirmed", confirmed,
		"tracked", len(results),
		"duration", time.Since(startTime),
	)
}
