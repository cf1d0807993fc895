// Package server implements the `tapbridge server` command: the HTTP API
// plus the background bridge loops in one process.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"tapbridge/internal/application/bridge/usecases"
	"tapbridge/internal/infrastructure/blockchain"
	"tapbridge/internal/infrastructure/cache"
	"tapbridge/internal/infrastructure/config"
	"tapbridge/internal/infrastructure/database"
	"tapbridge/internal/infrastructure/keyvault"
	"tapbridge/internal/infrastructure/persistence/migrations"
	"tapbridge/internal/infrastructure/repository"
	"tapbridge/internal/infrastructure/scheduler"
	httpRouter "tapbridge/internal/interfaces/http"
	"tapbridge/internal/interfaces/http/handlers"
	"tapbridge/internal/shared/db"
	"tapbridge/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
	noWorkers   bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the bridge HTTP server",
		Long:  `Start the tapbridge HTTP API together with the deposit monitor, withdrawal worker and housekeeping loops.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup")
	cmd.Flags().BoolVar(&noWorkers, "no-workers", false, "Serve the API without the background bridge loops")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting bridge server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production environment")
		}
		if err := migrations.AutoMigrate(database.Get()); err != nil {
			return err
		}
		log.Infow("auto-migration completed")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	chainClient, err := blockchain.NewEVMClient(&cfg.Chain, log)
	if err != nil {
		return fmt.Errorf("failed to initialize chain client: %w", err)
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

	depositTTL := time.Duration(cfg.Bridge.DepositTTLMinutes) * time.Minute

	createDepositUC := usecases.NewCreateDepositUseCase(depositRepo, cfg.Bridge.DepositAddress, depositTTL, log)
	getDepositStatusUC := usecases.NewGetDepositStatusUseCase(depositRepo)
	confirmDepositsUC := usecases.NewConfirmDepositsUseCase(
		depositRepo, balanceRepo, chainClient, txManager,
		cfg.Bridge.DepositAddress, cfg.Bridge.RequiredConfirmations, cfg.Bridge.DepositLookbackBlocks, log,
	)
	expireDepositsUC := usecases.NewExpireDepositsUseCase(depositRepo, log)

	createWithdrawalUC := usecases.NewCreateWithdrawalUseCase(withdrawalRepo, balanceRepo, txManager, log)
	getWithdrawalStatusUC := usecases.NewGetWithdrawalStatusUseCase(withdrawalRepo)
	processWithdrawalsUC := usecases.NewProcessWithdrawalsUseCase(
		withdrawalRepo, balanceRepo, chainClient, keySource, nonceAllocator, txManager,
		cfg.Bridge.DepositAddress, log,
	)
	reclaimWithdrawalsUC := usecases.NewReclaimStaleWithdrawalsUseCase(
		withdrawalRepo,
		time.Duration(cfg.Bridge.WithdrawalStaleMinutes)*time.Minute,
		log,
	)

	getBalanceUC := usecases.NewGetBalanceUseCase(balanceRepo)
	adjustBalanceUC := usecases.NewAdjustBalanceUseCase(balanceRepo, log)

	bridgeHandler := handlers.NewBridgeHandler(
		createDepositUC, getDepositStatusUC,
		createWithdrawalUC, getWithdrawalStatusUC,
		getBalanceUC, adjustBalanceUC,
	)

	router := httpRouter.NewRouter(bridgeHandler, log)
	router.SetupRoutes()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var depositMonitor *scheduler.DepositMonitorScheduler
	var withdrawalWorker *scheduler.WithdrawalScheduler
	var housekeeping *scheduler.SchedulerManager

	if !noWorkers {
		depositMonitor = scheduler.NewDepositMonitorScheduler(
			confirmDepositsUC,
			time.Duration(cfg.Bridge.DepositPollSeconds)*time.Second,
			log,
		)
		depositMonitor.Start(workerCtx)

		withdrawalWorker = scheduler.NewWithdrawalScheduler(
			processWithdrawalsUC,
			time.Duration(cfg.Bridge.WithdrawalPollSeconds)*time.Second,
			log,
		)
		withdrawalWorker.Start(workerCtx)

		housekeeping, err = scheduler.NewSchedulerManager(log)
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler manager: %w", err)
		}
		if err := housekeeping.RegisterHousekeepingJobs(
			expireDepositsUC,
			reclaimWithdrawalsUC,
			time.Duration(cfg.Bridge.HousekeepingIntervalMinute)*time.Minute,
		); err != nil {
			return fmt.Errorf("failed to register housekeeping jobs: %w", err)
		}
		housekeeping.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	// Stop accepting new work before stopping the loops: in-flight
	// withdrawal broadcasts must finish or fail cleanly.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	if depositMonitor != nil {
		depositMonitor.Stop()
	}
	if withdrawalWorker != nil {
		withdrawalWorker.Stop()
	}
	if housekeeping != nil {
		if err := housekeeping.Stop(); err != nil {
			log.Errorw("failed to stop scheduler manager", "error", err)
		}
	}
	cancelWorkers()

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
