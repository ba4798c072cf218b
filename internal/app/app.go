package app

import (
	"context"
	"sync"

	"github.com/mselser95/metatx-relay/internal/chain"
	"github.com/mselser95/metatx-relay/internal/journal"
	"github.com/mselser95/metatx-relay/internal/worker"
	"github.com/mselser95/metatx-relay/pkg/config"
	"github.com/mselser95/metatx-relay/pkg/healthprobe"
	"github.com/mselser95/metatx-relay/pkg/heads"
	"github.com/mselser95/metatx-relay/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	chainClient   *chain.Node
	tracker       *worker.Tracker
	headsWatcher  *heads.Watcher // nil when no WS URL is configured
	journal       journal.Journal
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
