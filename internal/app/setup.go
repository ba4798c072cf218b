package app

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/internal/journal"
	"github.com/mselser95/metatx-relay/internal/relayer"
	"github.com/mselser95/metatx-relay/internal/worker"
	"github.com/mselser95/metatx-relay/pkg/cache"
	"github.com/mselser95/metatx-relay/pkg/config"
	"github.com/mselser95/metatx-relay/pkg/healthprobe"
	"github.com/mselser95/metatx-relay/pkg/heads"
	"github.com/mselser95/metatx-relay/pkg/httpserver"
	"go.uber.org/zap"
)

// New creates a new application instance. The worker key is derived from the
// configured mnemonic and index; everything downstream signs with it.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.WorkerMnemonic == "" {
		return nil, fmt.Errorf("WORKER_MNEMONIC is required")
	}

	workerKey, err := worker.DerivePrivateKey(cfg.WorkerMnemonic, cfg.WorkerIndex)
	if err != nil {
		return nil, fmt.Errorf("derive worker key: %w", err)
	}
	workerAddr := crypto.PubkeyToAddress(workerKey.PublicKey)

	ctx, cancel := context.WithCancel(context.Background())

	chainClient, err := setupChain(ctx, cfg, logger, workerKey)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup chain client: %w", err)
	}

	engine, err := setupEngine(cfg, logger, chainClient)
	if err != nil {
		cancel()
		chainClient.Close()
		return nil, fmt.Errorf("setup engine: %w", err)
	}

	attemptJournal, err := setupJournal(cfg, logger)
	if err != nil {
		cancel()
		chainClient.Close()
		return nil, fmt.Errorf("setup journal: %w", err)
	}

	tracker, err := setupTracker(cfg, logger, chainClient, workerAddr)
	if err != nil {
		cancel()
		chainClient.Close()
		return nil, fmt.Errorf("setup worker tracker: %w", err)
	}

	headsWatcher, err := setupHeadsWatcher(cfg, logger)
	if err != nil {
		cancel()
		chainClient.Close()
		return nil, fmt.Errorf("setup heads watcher: %w", err)
	}

	healthChecker := setupHealthChecker(tracker, headsWatcher)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, engine, attemptJournal, tracker, headsWatcher, workerAddr)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		chainClient:   chainClient,
		tracker:       tracker,
		headsWatcher:  headsWatcher,
		journal:       attemptJournal,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupChain(ctx context.Context, cfg *config.Config, logger *zap.Logger, workerKey *ecdsa.PrivateKey) (*chain.Node, error) {
	receiptCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items
		MaxCost:     1000,  // at most 1000 cached receipts
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("setup receipt cache: %w", err)
	}

	return chain.Dial(ctx, &chain.NodeConfig{
		RPCURL:       cfg.ChainRPCURL,
		WorkerKey:    workerKey,
		ReceiptCache: receiptCache,
		Logger:       logger,
	})
}

func setupEngine(cfg *config.Config, logger *zap.Logger, chainClient *chain.Node) (*relayer.Engine, error) {
	return relayer.New(&relayer.Config{
		Chain:             chainClient,
		VerifyingContract: common.HexToAddress(cfg.VerifyingContract),
		GasEstimateBuffer: cfg.GasEstimateBuffer,
		Logger:            logger,
	})
}

func setupJournal(cfg *config.Config, logger *zap.Logger) (journal.Journal, error) {
	if cfg.JournalMode == "postgres" {
		return journal.NewPostgresJournal(&journal.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}

	return journal.NewConsoleJournal(logger), nil
}

func setupTracker(cfg *config.Config, logger *zap.Logger, chainClient *chain.Node, addr common.Address) (*worker.Tracker, error) {
	return worker.New(&worker.Config{
		Chain:             chainClient,
		Address:           addr,
		PollInterval:      cfg.WorkerPollInterval,
		RequiredGasPrice:  cfg.WorkerGasPriceWei,
		EstimatedGasUsage: cfg.WorkerGasUsageEstimate,
		Reserve:           cfg.WorkerReserveWei,
		Logger:            logger,
	})
}

func setupHeadsWatcher(cfg *config.Config, logger *zap.Logger) (*heads.Watcher, error) {
	if cfg.ChainWSURL == "" {
		return nil, nil
	}

	return heads.New(heads.Config{
		URL:                   cfg.ChainWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		Logger:                logger,
	})
}

func setupHealthChecker(tracker *worker.Tracker, headsWatcher *heads.Watcher) *healthprobe.HealthChecker {
	probeCfg := &healthprobe.Config{
		WorkerReady: tracker.Ready,
	}
	if headsWatcher != nil {
		probeCfg.ChainHeight = headsWatcher.LatestHeight
	}
	return healthprobe.New(probeCfg)
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	engine *relayer.Engine,
	attemptJournal journal.Journal,
	tracker *worker.Tracker,
	headsWatcher *heads.Watcher,
	workerAddr common.Address,
) *httpserver.Server {
	var heights httpserver.HeightSource
	if headsWatcher != nil {
		heights = headsWatcher
	}

	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		WorkerStatus:  httpserver.NewWorkerStatusHandler(workerAddr.Hex(), tracker, heights, logger),
		Relay:         httpserver.NewRelayHandler(engine, attemptJournal, workerAddr, cfg.WorkerGasPriceWei, logger),
	})
}
