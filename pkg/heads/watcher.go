package heads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Watcher follows the chain head over a raw eth_subscribe("newHeads")
// websocket subscription, tracking the latest block height for liveness and
// confirmation checks.
type Watcher struct {
	url          string
	conn         *websocket.Conn
	logger       *zap.Logger
	reconnectMgr *ReconnectManager
	config       Config
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	connected    atomic.Bool
	latestHeight atomic.Uint64
}

// Config holds watcher configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	Logger                *zap.Logger
}

// subscribeRequest is the JSON-RPC frame opening the newHeads subscription.
type subscribeRequest struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      int      `json:"id"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
}

// headNotification is the inbound frame shape: either the subscription
// confirmation or a newHeads notification.
type headNotification struct {
	ID     int    `json:"id,omitempty"`
	Method string `json:"method,omitempty"`
	Params struct {
		Result struct {
			Number string `json:"number"`
		} `json:"result"`
	} `json:"params"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates a heads watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.URL == "" {
		return nil, errors.New("websocket URL cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Watcher{
		url:          cfg.URL,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
	}, nil
}

// Start connects and begins following heads. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	err := w.connect(ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	w.wg.Add(1)
	go w.readLoop(ctx)

	return nil
}

// LatestHeight returns the most recent block height seen, 0 before the first
// notification.
func (w *Watcher) LatestHeight() uint64 {
	return w.latestHeight.Load()
}

// Connected reports whether the subscription is currently live.
func (w *Watcher) Connected() bool {
	return w.connected.Load()
}

// Close stops the watcher and closes the connection.
func (w *Watcher) Close() {
	if w.cancel != nil {
		w.cancel()
	}

	w.mu.Lock()
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("heads-watcher-closed")
}

func (w *Watcher) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: w.config.DialTimeout,
	}

	w.logger.Info("connecting-to-node-websocket", zap.String("url", w.url))

	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	req := subscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_subscribe",
		Params:  []string{"newHeads"},
	}
	err = conn.WriteJSON(req)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("send subscribe request: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	w.connected.Store(true)
	ActiveConnections.Set(1)
	w.logger.Info("newheads-subscription-open")

	return nil
}

func (w *Watcher) readLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		_, payload, err := conn.ReadMessage()
		if err != nil {
			w.connected.Store(false)
			ActiveConnections.Set(0)

			if ctx.Err() != nil {
				return
			}

			w.logger.Warn("newheads-read-failed", zap.Error(err))
			err = w.reconnectMgr.Reconnect(ctx, w.connect)
			if err != nil {
				return
			}
			continue
		}

		w.handleFrame(payload)
	}
}

func (w *Watcher) handleFrame(payload []byte) {
	var note headNotification
	err := json.Unmarshal(payload, &note)
	if err != nil {
		w.logger.Warn("newheads-frame-unparseable", zap.Error(err))
		return
	}

	if note.Error != nil {
		w.logger.Warn("newheads-subscription-error",
			zap.Int("code", note.Error.Code),
			zap.String("message", note.Error.Message))
		return
	}
	if note.Method != "eth_subscription" {
		// Subscription confirmation frame.
		return
	}

	height, err := parseHexUint(note.Params.Result.Number)
	if err != nil {
		w.logger.Warn("newheads-bad-block-number",
			zap.String("number", note.Params.Result.Number))
		return
	}

	w.latestHeight.Store(height)
	HeadsReceivedTotal.Inc()
	LatestHeight.Set(float64(height))
}

func parseHexUint(s string) (uint64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" || trimmed == s {
		return 0, fmt.Errorf("not a hex quantity: %q", s)
	}
	return strconv.ParseUint(trimmed, 16, 64)
}
