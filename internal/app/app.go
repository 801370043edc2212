package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"chatwidget/internal/ai"
	"chatwidget/internal/api"
	"chatwidget/internal/chat"
	"chatwidget/internal/config"
	"chatwidget/internal/errorx"
	"chatwidget/internal/logger"
	"chatwidget/internal/storage"
)

// App orchestrates all components
type App struct {
	configPath string
	errs       *errorx.Handler
	serviceOpt []ai.Option
	logLevel   string

	mu        sync.RWMutex
	service   *ai.Service
	store     *storage.Store
	watcher   *config.ConfigWatcher
	apiServer *api.APIServer
	storeOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithServiceOptions passes options to every completion service the app builds.
func WithServiceOptions(opts ...ai.Option) Option {
	return func(a *App) { a.serviceOpt = append(a.serviceOpt, opts...) }
}

// WithLogLevel pins the log level regardless of the configured logLevel.
func WithLogLevel(level string) Option {
	return func(a *App) { a.logLevel = level }
}

// WithErrorHandler routes recovered failures through h.
func WithErrorHandler(h *errorx.Handler) Option {
	return func(a *App) { a.errs = h }
}

// New creates a new application instance reading configuration from
// configPath. An empty path means config.DefaultPath.
func New(configPath string, opts ...Option) *App {
	if configPath == "" {
		configPath = config.DefaultPath
	}
	a := &App{
		configPath: configPath,
		errs:       errorx.DefaultHandler,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.service = a.newService()
	return a
}

func (a *App) newService(extra ...ai.Option) *ai.Service {
	opts := append([]ai.Option{ai.WithErrorHandler(a.errs)}, a.serviceOpt...)
	opts = append(opts, extra...)
	return ai.NewService(a.configPath, opts...)
}

// Service returns the completion service new sessions bind to.
func (a *App) Service() *ai.Service {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.service
}

// Initialize starts loading configuration in the background and returns
// immediately. Call Wait to block until it is done.
func (a *App) Initialize(ctx context.Context) {
	svc := a.Service()
	go func() {
		if err := svc.Initialize(ctx); err != nil {
			return
		}
		a.onInitialized(svc.Config())
	}()
}

// Wait blocks until the current service finished initializing.
func (a *App) Wait(ctx context.Context) error {
	svc := a.Service()
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	a.onInitialized(svc.Config())
	return nil
}

func (a *App) applyLogLevel(cfg *config.Config) {
	if a.logLevel != "" {
		logger.SetLevel(a.logLevel)
		return
	}
	logger.SetLevel(cfg.LogLevel)
}

func (a *App) onInitialized(cfg *config.Config) {
	a.applyLogLevel(cfg)
	a.storeOnce.Do(func() {
		if !cfg.Storage.Enabled {
			return
		}
		store, err := storage.New(cfg.Storage.Path)
		if err != nil {
			logger.Warnf("Transcript storage disabled: %v", err)
			return
		}
		logger.Infof("💾 Transcripts stored in %s", cfg.Storage.Path)
		a.mu.Lock()
		a.store = store
		a.mu.Unlock()
	})
}

// NewController builds a widget controller bound to the current service.
// Messages are persisted under sessionID when storage is enabled.
func (a *App) NewController(sessionID string, opts ...chat.Option) *chat.Controller {
	svc := a.Service()
	base := []chat.Option{
		chat.WithErrorHandler(a.errs),
		chat.WithObserver(func(m chat.Message) { a.persist(sessionID, m) }),
	}
	ctl := chat.NewController(svc, svc.ChatbotConfig(), append(base, opts...)...)
	if !svc.Initialized() {
		go func() {
			<-svc.Done()
			ctl.Configure(svc.ChatbotConfig())
		}()
	}
	return ctl
}

// SessionController implements api.Backend.
func (a *App) SessionController(sessionID string) *chat.Controller {
	return a.NewController(sessionID)
}

func (a *App) persist(sessionID string, m chat.Message) {
	a.mu.RLock()
	store := a.store
	a.mu.RUnlock()
	if store == nil {
		return
	}
	if err := store.SaveMessage(sessionID, string(m.Sender), m.Content, m.Timestamp); err != nil {
		logger.Warnf("Failed to persist message for %s: %v", sessionID, err)
	}
}

// ConfigPath returns the configuration file the app reads.
func (a *App) ConfigPath() string { return a.configPath }

// StorageEnabled reports whether transcripts are being persisted.
func (a *App) StorageEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.store != nil
}

// Status implements api.Backend.
func (a *App) Status() api.Status {
	svc := a.Service()
	st := api.Status{
		Available: svc.IsAvailable(),
		Model:     svc.Config().OpenAI.Model,
	}
	st.Status, st.StatusClass, st.Placeholder = chat.StatusOf(svc)
	if kind := errorx.KindOf(svc.InitFailure()); kind != 0 {
		st.InitFailure = kind.String()
	}
	return st
}

// Transcript implements api.Backend.
func (a *App) Transcript(sessionID string, limit int) ([]api.Transcript, bool, error) {
	a.mu.RLock()
	store := a.store
	a.mu.RUnlock()
	if store == nil {
		return nil, false, nil
	}

	msgs, err := store.GetMessages(sessionID, limit)
	if err != nil {
		return nil, true, err
	}
	out := make([]api.Transcript, len(msgs))
	for i, m := range msgs {
		out[i] = api.Transcript{Sender: m.Sender, Content: m.Content, Timestamp: m.CreatedAt}
	}
	return out, true, nil
}

// Reload swaps in a service built from cfg. Sessions created afterwards use
// it; existing sessions keep the service they were created with.
func (a *App) Reload(ctx context.Context, cfg *config.Config) error {
	svc := a.newService(ai.WithConfig(cfg))
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	a.applyLogLevel(cfg)

	a.mu.Lock()
	a.service = svc
	a.mu.Unlock()
	logger.Infof("🔄 Configuration reloaded (model: %s, available: %v)", cfg.OpenAI.Model, svc.IsAvailable())
	return nil
}

// Serve runs the HTTP embedding API until ctx is cancelled. The config file is
// watched and reloaded while serving.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Wait(ctx); err != nil {
		return err
	}
	cfg := a.Service().Config()

	if _, err := os.Stat(a.configPath); err == nil {
		w, err := config.NewConfigWatcher(a.configPath, func(newCfg *config.Config) {
			if err := a.Reload(ctx, newCfg); err != nil {
				logger.Warnf("Config reload aborted: %v", err)
			}
		})
		if err != nil {
			logger.Warnf("Config hot reload disabled: %v", err)
		} else {
			a.mu.Lock()
			a.watcher = w
			a.mu.Unlock()
		}
	}

	if cfg.Server.APIKey == "" {
		logger.Warnf("server.apiKey not set, the embedding API is unauthenticated")
	}

	server := api.NewAPIServer(cfg.Server, a)
	a.mu.Lock()
	a.apiServer = server
	a.mu.Unlock()

	logger.Infof("🌐 Starting embedding API on port %d...", cfg.Server.Port)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down all components
func (a *App) Stop() error {
	a.mu.Lock()
	watcher, server, store := a.watcher, a.apiServer, a.store
	a.watcher, a.apiServer, a.store = nil, nil, nil
	a.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
	if server != nil {
		if err := server.Stop(context.Background()); err != nil {
			logger.Errorf("Error stopping API server: %v", err)
		}
	}
	if store != nil {
		return store.Close()
	}
	return nil
}
