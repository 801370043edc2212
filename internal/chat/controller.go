package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chatwidget/internal/ai"
	"chatwidget/internal/config"
	"chatwidget/internal/errorx"
	"chatwidget/internal/logger"
)

var (
	// ErrEmptyMessage means SendMessage was given only whitespace.
	ErrEmptyMessage error = errorx.NewUserError("Message is empty", nil)
	// ErrBusy means a response is still being generated.
	ErrBusy error = errorx.NewUserError("A response is already in progress", nil)
)

// ApologyMessage is shown when generating a reply fails outright.
const ApologyMessage = "Sorry, I encountered an error. Please try again."

const promptTemplate = `You are a helpful AI assistant for a company.
Please provide clear, concise, and helpful responses to customer inquiries.
Keep responses professional but friendly. If you don't know something specific about the company,
suggest they contact support for detailed information.

User question: %s`

// BuildPrompt embeds the user's text verbatim in the assistant instructions.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// Generator is the remote completion service as seen by the controller.
type Generator interface {
	IsAvailable() bool
	GenerateText(ctx context.Context, prompt string, opts ai.Options) (string, error)
}

// initializer is implemented by generators that load asynchronously.
type initializer interface {
	Initialized() bool
}

// Controller owns the widget state: open, fullscreen, loading and the
// bounded transcript. All methods are safe for concurrent use.
//
// At most one reply is generated at a time. The loading flag is checked and
// set under the lock when a send starts and cleared when it finishes, so a
// second send during generation is rejected rather than queued. Late replies
// cannot overlap because of this; anything that decouples input from
// SendMessage must keep going through it.
type Controller struct {
	gen      Generator
	errs     *errorx.Handler
	fallback Fallback
	native   Fullscreen
	layout   *LayoutFullscreen
	observer func(Message)

	mu           sync.Mutex
	name         string
	welcome      string
	open         bool
	fullscreen   bool
	loading      bool
	inputFocused bool
	active       Fullscreen
	history      *History
}

// Option configures a Controller.
type Option func(*Controller)

// WithNativeFullscreen sets the presenter tried before the layout fallback.
func WithNativeFullscreen(f Fullscreen) Option {
	return func(c *Controller) { c.native = f }
}

// WithErrorHandler routes recovered failures through h.
func WithErrorHandler(h *errorx.Handler) Option {
	return func(c *Controller) { c.errs = h }
}

// WithFallback replaces the canned keyword replies.
func WithFallback(f Fallback) Option {
	return func(c *Controller) { c.fallback = f }
}

// WithObserver is called with every message added to the transcript.
func WithObserver(fn func(Message)) Option {
	return func(c *Controller) { c.observer = fn }
}

// NewController creates a closed widget bound to gen.
func NewController(gen Generator, cfg config.ChatbotConfig, opts ...Option) *Controller {
	c := &Controller{
		gen:      gen,
		errs:     errorx.DefaultHandler,
		fallback: LocalFallback,
		native:   unsupportedFullscreen{},
		layout:   &LayoutFullscreen{},
		name:     cfg.Name,
		welcome:  cfg.WelcomeMessage,
		history:  NewHistory(cfg.MaxHistoryLength),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Toggle opens a closed widget or closes an open one.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		c.closeLocked()
		return
	}
	c.openLocked()
}

// Open shows the widget and focuses the input.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openLocked()
}

// Close hides the widget, leaving fullscreen first when active. A reply
// still being generated is not cancelled.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) openLocked() {
	c.open = true
	c.inputFocused = true
}

func (c *Controller) closeLocked() {
	if c.fullscreen {
		c.exitFullscreenLocked()
	}
	c.open = false
	c.inputFocused = false
}

// ToggleFullscreen enters or leaves fullscreen. It has no effect while the
// widget is closed.
func (c *Controller) ToggleFullscreen() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return
	}
	if c.fullscreen {
		c.exitFullscreenLocked()
		return
	}

	if err := c.native.Enter(); err != nil {
		c.errs.Report(errorx.FullscreenAPIFailure, err)
		_ = c.layout.Enter()
		c.active = c.layout
	} else {
		c.active = c.native
	}
	c.fullscreen = true
	c.inputFocused = true
}

func (c *Controller) exitFullscreenLocked() {
	if c.active != nil {
		if err := c.active.Exit(); err != nil {
			c.errs.Report(errorx.FullscreenAPIFailure, err)
		}
	}
	// The layout may have been applied alongside a native presenter that
	// later failed; always clear it.
	_ = c.layout.Exit()
	c.active = nil
	c.fullscreen = false
}

// SendMessage appends the user's text, generates a reply and appends it.
// Empty input and sends during an in-flight reply do nothing and return
// ErrEmptyMessage or ErrBusy. Generation failures never surface as errors:
// the transcript gets ApologyMessage instead.
func (c *Controller) SendMessage(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	c.loading = true
	user := c.appendLocked(text, SenderUser)
	c.mu.Unlock()
	c.notify(user)

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	var reply string
	err := c.errs.HandleWithRecovery(func() error {
		reply = c.GenerateResponse(ctx, text)
		return nil
	})
	if err != nil {
		logger.Errorf("Error generating response: %v", err)
		reply = ApologyMessage
	}

	c.mu.Lock()
	bot := c.appendLocked(reply, SenderBot)
	c.mu.Unlock()
	c.notify(bot)

	return bot, nil
}

// GenerateResponse asks the remote service when it is available and falls
// back to canned replies otherwise or on any remote failure.
func (c *Controller) GenerateResponse(ctx context.Context, text string) string {
	if c.gen == nil || !c.gen.IsAvailable() {
		return c.fallback(text)
	}

	var reply string
	err := c.errs.HandleWithRecovery(func() error {
		var err error
		reply, err = c.gen.GenerateText(ctx, BuildPrompt(text), ai.Options{})
		return err
	})
	if err != nil {
		c.errs.Report(errorx.RemoteCallFailure, err)
		return c.fallback(text)
	}
	return reply
}

// HandleQuickAction submits the canned query for action as if typed.
func (c *Controller) HandleQuickAction(ctx context.Context, action string) (Message, error) {
	return c.SendMessage(ctx, QuickQuery(action))
}

// History returns the transcript, oldest first.
func (c *Controller) History() []Message {
	c.mu.Lock()
	h := c.history
	c.mu.Unlock()
	return h.Messages()
}

// Configure applies presentation settings loaded after the controller was
// created. The history capacity only changes while the transcript is empty.
func (c *Controller) Configure(cfg config.ChatbotConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg.Name != "" {
		c.name = cfg.Name
	}
	if cfg.WelcomeMessage != "" {
		c.welcome = cfg.WelcomeMessage
	}
	if c.history.Len() == 0 && cfg.MaxHistoryLength > 0 && cfg.MaxHistoryLength != c.history.Cap() {
		c.history = NewHistory(cfg.MaxHistoryLength)
	}
}

// Loading reports whether a reply is being generated.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) appendLocked(content string, sender Sender) Message {
	msg := Message{Content: content, Sender: sender, Timestamp: time.Now()}
	c.history.Push(msg)
	return msg
}

func (c *Controller) notify(msg Message) {
	if c.observer != nil {
		c.observer(msg)
	}
}
