package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tapbridge/internal/application/bridge/usecases"
	"tapbridge/internal/infrastructure/blockchain"
	"tapbridge/internal/infrastructure/cache"
	"tapbridge/internal/infrastructure/config"
	"tapbridge/internal/infrastructure/database"
	"tapbridge/internal/infrastructure/keyvault"
	"tapbridge/internal/infrastructure/repository"
	"tapbridge/internal/infrastructure/scheduler"
	"tapbridge/internal/shared/db"
	"tapbridge/internal/shared/logger"
)

// Standalone bridge worker: runs the deposit monitor, the withdrawal
// worker and the housekeeping sweeps without the HTTP API. Safe to run
// alongside the server with workers disabled, or scaled horizontally:
// claim and confirm paths are guarded at the database level.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting bridge worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	chainClient, err := blockchain.NewEVMClient(&cfg.Chain, log)
	if err != nil {
		log.Fatalw("failed to initialize chain client", "error", err)
	}
	defer chainClient.Close()

	keySource := keyvault.NewFileVault(&cfg.Vault)
	nonceAllocator := cache.NewRedisNonceAllocator(
		redisClient,
		chainClient,
		time.Duration(cfg.Bridge.NonceLeaseTTLSeconds)*time.Second,
		log,
	)

	depositRepo := repository.NewDepositRepository(database.Get())
	withdrawalRepo := repository.NewWithdrawalRepository(database.Get())
	balanceRepo := repository.NewBalanceRepository(database.Get())
	txManager := db.NewTransactionManager(database.Get())

	confirmDepositsUC := usecases.NewConfirmDepositsUseCase(
		depositRepo, balanceRepo, chainClient, txManager,
		cfg.Bridge.DepositAddress, cfg.Bridge.RequiredConfirmations, cfg.Bridge.DepositLookbackBlocks, log,
	)
	expireDepositsUC := usecases.NewExpireDepositsUseCase(depositRepo, log)
	processWithdrawalsUC := usecases.NewProcessWithdrawalsUseCase(
		withdrawalRepo, balanceRepo, chainClient, keySource, nonceAllocator, txManager,
		cfg.Bridge.DepositAddress, log,
	)
	reclaimWithdrawalsUC := usecases.NewReclaimStaleWithdrawalsUseCase(
		withdrawalRepo,
		time.Duration(cfg.Bridge.WithdrawalStaleMinutes)*time.Minute,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	depositMonitor := scheduler.NewDepositMonitorScheduler(
		confirmDepositsUC,
		time.Duration(cfg.Bridge.DepositPollSeconds)*time.Second,
		log,
	)
	depositMonitor.Start(ctx)

	withdrawalWorker := scheduler.NewWithdrawalScheduler(
		processWithdrawalsUC,
		time.Duration(cfg.Bridge.WithdrawalPollSeconds)*time.Second,
		log,
	)
	withdrawalWorker.Start(ctx)

	housekeeping, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		log.Fatalw("failed to initialize scheduler manager", "error", err)
	}
	if err := housekeeping.RegisterHousekeepingJobs(
		expireDepositsUC,
		reclaimWithdrawalsUC,
		time.Duration(cfg.Bridge.HousekeepingIntervalMinute)*time.Minute,
	); err != nil {
		log.Fatalw("failed to register housekeeping jobs", "error", err)
	}
	housekeeping.Start()

	log.Infow("bridge worker started",
		"deposit_poll_seconds", cfg.Bridge.DepositPollSeconds,
		"withdrawal_poll_seconds", cfg.Bridge.WithdrawalPollSeconds,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	depositMonitor.Stop()
	withdrawalWorker.Stop()
	if err := housekeeping.Stop(); err != nil {
		log.Errorw("failed to stop scheduler manager", "error", err)
	}
	cancel()

	log.Infow("bridge worker stopped")
}
