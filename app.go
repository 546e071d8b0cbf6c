// Package taskchain wires the task client: a wallet backed identity, a ledger
// session negotiated over HTTP, and the local edge serving task actions.
package taskchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/adapters/events"
	"github.com/layer-3/taskchain/adapters/ledger"
	"github.com/layer-3/taskchain/adapters/wallet"
	"github.com/layer-3/taskchain/config"
	"github.com/layer-3/taskchain/log"
	"github.com/layer-3/taskchain/service"
	"github.com/layer-3/taskchain/transport/edge"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	logger     *slog.Logger
	httpClient ledger.HTTPDoer
	approver   wallet.Approver
	promptIn   io.Reader
	promptOut  io.Writer
}

// Option customizes an App
type Option func(*options)

// WithLogger replaces the logger built from the configured level
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient sets the client used to reach ledger nodes
func WithHTTPClient(client ledger.HTTPDoer) Option {
	return func(o *options) { o.httpClient = client }
}

// WithApprover sets who approves wallet account access
func WithApprover(approver wallet.Approver) Option {
	return func(o *options) { o.approver = approver }
}

// App is a running task client
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	redis     *redis.Client
	publisher message.Publisher

	Sessions   *service.SessionContext
	Negotiator *service.Negotiator
	Gateway    *service.TaskGateway
	Refresher  *service.Refresher
	router     *gin.Engine
}

// New builds the client from cfg
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{promptIn: os.Stdin, promptOut: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.New("taskchain", log.ParseLevel(cfg.LogLevel))
	}

	app := &App{cfg: cfg, logger: logger}
	if err := app.setupEvents(); err != nil {
		return nil, err
	}

	client, err := ledger.NewClient(ledger.Config{
		NodeURLPool:   cfg.Ledger.NodeURLPool,
		BlockchainRID: cfg.Ledger.BlockchainRID,
		HTTPClient:    o.httpClient,
		Logger:        logger.With("component", "ledger"),
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	approver := o.approver
	if approver == nil {
		if cfg.Wallet.AutoApprove {
			approver = wallet.AutoApprove
		} else {
			approver = wallet.NewPromptApprover(o.promptIn, o.promptOut)
		}
	}
	detect := wallet.Detector(wallet.Source{
		PrivateKeyHex: cfg.Wallet.PrivateKey,
		KeyFile:       cfg.Wallet.KeyFile,
		Passphrase:    cfg.Wallet.Passphrase,
	}, approver)

	app.Sessions = service.NewSessionContext(events.NewWatermillPublisher(app.publisher), logger.With("component", "session"))
	app.Negotiator = service.NewNegotiator(service.NegotiatorConfig{
		Detect:        detect,
		Bind:          wallet.BindKeyStore,
		Ledger:        client,
		Sessions:      app.Sessions,
		SessionConfig: cfg.SessionConfig(),
		DisplayName:   service.RandomDisplayName,
		Logger:        logger.With("component", "negotiator"),
	})
	app.Gateway = service.NewTaskGateway(app.Sessions, logger.With("component", "gateway"))
	app.Refresher = service.NewRefresher(service.RefresherConfig{
		Gateway:  app.Gateway,
		Sessions: app.Sessions,
		Interval: cfg.Tasks.RefreshInterval,
		PageSize: cfg.Tasks.PageSize,
		Logger:   logger.With("component", "refresher"),
	})
	app.router = edge.SetupRouter(edge.Config{
		Auth:      app.Negotiator,
		Sessions:  app.Sessions,
		Gateway:   app.Gateway,
		Refresher: app.Refresher,
		PageSize:  cfg.Tasks.PageSize,
		Logger:    logger.With("component", "edge"),
	})

	return app, nil
}

// setupEvents publishes session events to a redis stream, or in process without redis
func (a *App) setupEvents() error {
	wmLogger := watermill.NewStdLogger(false, false)

	if a.cfg.RedisURL == "" {
		a.publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		return nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	a.redis = redis.NewClient(opts)

	a.publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{Client: a.redis}, wmLogger)
	if err != nil {
		a.redis.Close()
		return fmt.Errorf("failed to create redis publisher: %w", err)
	}
	return nil
}

// Handler is the local edge
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves the edge and polls task lists until ctx is done.
// With eager auth on, a login attempt starts alongside.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(log.IntoContext(ctx, a.logger))
	defer cancel()

	srv := &http.Server{
		Addr:    a.cfg.ListenAddr,
		Handler: a.router,
	}

	if a.cfg.Session.Eager {
		go func() {
			if _, err := a.Negotiator.Authenticate(ctx); err != nil {
				a.logger.Warn("eager authentication failed", "error", err)
			}
		}()
	}

	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		a.Refresher.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("edge listening", "addr", a.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("edge shutdown", "error", err)
	}
	<-refresherDone

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("edge server: %w", serveErr)
	}
	return nil
}

// Close releases the event publisher and the redis client
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
