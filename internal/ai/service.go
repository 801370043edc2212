package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chatwidget/internal/config"
	"chatwidget/internal/errorx"
	"chatwidget/internal/logger"
	"chatwidget/internal/redact"
)

// ErrUnavailable is returned by GenerateText when no usable remote client exists.
var ErrUnavailable = errors.New("completion service not available")

// Options override configured request parameters. Zero values fall back to
// the configuration.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// ClientFactory builds the remote handle from the loaded configuration.
type ClientFactory func(cfg config.OpenAIConfig) (Completer, error)

// Service loads configuration and owns the remote completion client.
// Initialization runs once; every caller of Initialize observes the same outcome.
type Service struct {
	path      string
	preset    *config.Config
	newClient ClientFactory
	errs      *errorx.Handler

	once sync.Once
	done chan struct{}

	mu          sync.RWMutex
	initialized bool
	initErr     error
	cfg         *config.Config
	client      Completer
}

// Option configures a Service.
type Option func(*Service)

// WithConfig skips file loading and uses cfg as the loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) { s.preset = cfg }
}

// WithClientFactory replaces the go-openai client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(s *Service) { s.newClient = f }
}

// WithErrorHandler routes recovered failures through h.
func WithErrorHandler(h *errorx.Handler) Option {
	return func(s *Service) { s.errs = h }
}

// NewService creates an uninitialized service reading configuration from path.
// An empty path means config.DefaultPath.
func NewService(path string, opts ...Option) *Service {
	if path == "" {
		path = config.DefaultPath
	}
	s := &Service{
		path:      path,
		newClient: defaultClientFactory,
		errs:      errorx.DefaultHandler,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultClientFactory(cfg config.OpenAIConfig) (Completer, error) {
	return NewClient(ProviderConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
}

// Initialize loads configuration and establishes the remote client. It never
// fails on bad configuration: defaults are substituted and the client stays
// unset. The only error is ctx ending while waiting.
func (s *Service) Initialize(ctx context.Context) error {
	s.once.Do(func() {
		go func() {
			defer close(s.done)
			s.initialize()
		}()
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when initialization has completed.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) initialize() {
	var failure error
	cfg := s.preset
	if cfg == nil {
		loaded, err := config.LoadFrom(s.path)
		if err != nil {
			failure = s.errs.Report(errorx.ConfigLoadFailure, err)
			loaded = config.Default()
		}
		cfg = loaded
	}

	var client Completer
	if cfg.OpenAI.HasUsableKey() {
		c, err := s.newClient(cfg.OpenAI)
		if err != nil {
			failure = s.errs.Report(errorx.RemoteClientInitFailure, errors.New(redact.Redact(err.Error(), cfg.OpenAI.APIKey)))
		} else {
			client = c
			logger.Infof("Completion client ready (model: %s)", cfg.OpenAI.Model)
		}
	} else {
		logger.Warnf("OpenAI API key not configured, using fallback responses")
	}

	s.mu.Lock()
	s.cfg = cfg
	s.client = client
	s.initErr = failure
	s.initialized = true
	s.mu.Unlock()
}

// IsAvailable reports whether GenerateText can reach the remote service.
func (s *Service) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized && s.client != nil && s.cfg != nil && s.cfg.OpenAI.HasUsableKey()
}

// Initialized reports whether Initialize has completed.
func (s *Service) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// InitFailure returns the last failure recovered during initialization, or nil.
func (s *Service) InitFailure() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initErr
}

// Config returns the loaded configuration, or the defaults before
// initialization has completed.
func (s *Service) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg != nil {
		return s.cfg
	}
	if s.preset != nil {
		return s.preset
	}
	return config.Default()
}

// ChatbotConfig returns the chatbot presentation settings.
func (s *Service) ChatbotConfig() config.ChatbotConfig {
	return s.Config().Chatbot
}

// GenerateText issues one completion request for prompt.
func (s *Service) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	if !s.IsAvailable() {
		return "", ErrUnavailable
	}

	s.mu.RLock()
	cfg := s.cfg.OpenAI
	client := s.client
	s.mu.RUnlock()

	req := CompletionRequest{
		Model:       cfg.Model,
		Prompt:      prompt,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	text, err := client.Complete(ctx, req)
	if err != nil {
		logger.Errorf("OpenAI API error: %s", redact.Redact(err.Error(), cfg.APIKey))
		return "", fmt.Errorf("generate text: %w", err)
	}

	logger.Debugf("Completion returned %d chars (model: %s)", len(text), req.Model)
	return text, nil
}
