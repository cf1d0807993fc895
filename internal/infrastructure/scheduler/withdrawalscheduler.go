package scheduler

import (
	"context"
	"sync"
	"time"

	"tapbridge/internal/application/bridge/usecases"
	"tapbridge/internal/shared/goroutine"
	"tapbridge/internal/shared/logger"
)

// WithdrawalScheduler drives the withdrawal worker: drain the queue of
// requests, broadcasting each one serially.
type WithdrawalScheduler struct {
	processWithdrawalsUC *usecases.ProcessWithdrawalsUseCase
	logger               logger.Interface
	stopChan             chan struct{}
	stopOnce             sync.Once
	wg                   sync.WaitGroup
	interval             time.Duration
	running              bool
	mu                   sync.RWMutex
}

func NewWithdrawalScheduler(
	processWithdrawalsUC *usecases.ProcessWithdrawalsUseCase,
	interval time.Duration,
	logger logger.Interface,
) *WithdrawalScheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &WithdrawalScheduler{
		processWithdrawalsUC: processWithdrawalsUC,
		logger:               logger,
		stopChan:             make(chan struct{}),
		interval:             interval,
	}
}

// Start starts the scheduler
func (s *WithdrawalScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Infow("starting withdrawal scheduler", "interval", s.interval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "withdrawal-worker", func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	})
}

// Stop stops the scheduler gracefully
func (s *WithdrawalScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Infow("stopping withdrawal scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("withdrawal scheduler stopped")
	})
}

// IsRunning returns whether the scheduler is running
func (s *WithdrawalScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *WithdrawalScheduler) runLoop(ctx context.Context) {
	// Run immediately on startup
	s.drainQueue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("withdrawal scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.drainQueue(ctx)
		}
	}
}

func (s *WithdrawalScheduler) drainQueue(ctx context.Context) {
	startTime := time.Now()

	processed, err := s.processWithdrawalsUC.Execute(ctx)
	if err != nil {
		s.logger.Errorw("withdrawal pass failed",
			"error", err,
			"processed", processed,
			"duration", time.Since(startTime),
		)
		return
	}

	if processed > 0 {
		s.logger.Infow("withdrawal pass completed",
			"processed", processed,
			"duration", time.Since(startTime),
		)
	}
}
