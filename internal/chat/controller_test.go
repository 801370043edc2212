package chat

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"chatwidget/internal/ai"
	"chatwidget/internal/config"
	"chatwidget/internal/errorx"
)

type fakeGenerator struct {
	mu        sync.Mutex
	available bool
	reply     string
	err       error
	panicMsg  string
	block     chan struct{}
	started   chan struct{}
	prompts   []string
}

func (f *fakeGenerator) IsAvailable() bool { return f.available }

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, _ ai.Options) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.reply, f.err
}

func testChatbotConfig() config.ChatbotConfig {
	return config.Default().Chatbot
}

func newTestController(gen Generator, opts ...Option) *Controller {
	opts = append([]Option{WithErrorHandler(errorx.NewHandler())}, opts...)
	return NewController(gen, testChatbotConfig(), opts...)
}

func mustSend(t *testing.T, c *Controller, text string) Message {
	t.Helper()
	reply, err := c.SendMessage(context.Background(), text)
	if err != nil {
		t.Fatalf("SendMessage(%q) error: %v", text, err)
	}
	return reply
}

func TestSendMessageRemote(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "Remote answer"}
	c := newTestController(gen)

	reply := mustSend(t, c, "  What do you sell?  ")
	if reply.Content != "Remote answer" || reply.Sender != SenderBot {
		t.Errorf("reply = %+v, want bot message %q", reply, "Remote answer")
	}

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("history has %d messages, want 2", len(history))
	}
	if history[0].Content != "What do you sell?" || history[0].Sender != SenderUser {
		t.Errorf("history[0] = %+v, want trimmed user message", history[0])
	}
	if history[1].Content != "Remote answer" {
		t.Errorf("history[1].Content = %q, want %q", history[1].Content, "Remote answer")
	}
	if c.Loading() {
		t.Error("loading should be cleared after the reply")
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	if gen.prompts[0] != BuildPrompt("What do you sell?") {
		t.Errorf("prompt = %q, want BuildPrompt output", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[0], "User question: What do you sell?") {
		t.Errorf("prompt %q is missing the user question", gen.prompts[0])
	}
}

func TestSendMessageOfflineUsesFallback(t *testing.T) {
	c := newTestController(&fakeGenerator{available: false})

	reply := mustSend(t, c, "Hello there")
	if want := LocalFallback("Hello there"); reply.Content != want {
		t.Errorf("reply = %q, want %q", reply.Content, want)
	}
}

func TestSendMessageNilGenerator(t *testing.T) {
	c := newTestController(nil)

	reply := mustSend(t, c, "xyz")
	if reply.Content != clarificationReply {
		t.Errorf("reply = %q, want clarification", reply.Content)
	}
	if got := c.View().Status; got != StatusOffline {
		t.Errorf("status = %q, want %q", got, StatusOffline)
	}
}

func TestSendMessageEmptyIsNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		c := newTestController(&fakeGenerator{available: true, reply: "x"})

		_, err := c.SendMessage(context.Background(), text)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("SendMessage(%q) error = %v, want ErrEmptyMessage", text, err)
		}
		if n := len(c.History()); n != 0 {
			t.Errorf("history has %d messages after empty send", n)
		}
		if c.Loading() {
			t.Error("loading set by empty send")
		}
	}
}

func TestSendErrorsCarryUserMessages(t *testing.T) {
	for _, err := range []error{ErrEmptyMessage, ErrBusy} {
		if msg, ok := errorx.UserMessage(err); !ok || msg == "" {
			t.Errorf("UserMessage(%v) = %q, %v, want a displayable message", err, msg, ok)
		}
	}
}

func TestSendMessageWhileLoadingIsNoop(t *testing.T) {
	gen := &fakeGenerator{
		available: true,
		reply:     "first",
		block:     make(chan struct{}),
		started:   make(chan struct{}, 1),
	}
	c := newTestController(gen)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.SendMessage(context.Background(), "first question")
	}()

	<-gen.started
	if !c.Loading() {
		t.Fatal("expected loading while the reply is generated")
	}
	if n := len(c.History()); n != 1 {
		t.Fatalf("history has %d messages, want 1", n)
	}

	if _, err := c.SendMessage(context.Background(), "second question"); !errors.Is(err, ErrBusy) {
		t.Errorf("second send error = %v, want ErrBusy", err)
	}
	if n := len(c.History()); n != 1 {
		t.Errorf("history has %d messages after busy send, want 1", n)
	}
	if !c.Loading() {
		t.Error("busy send must not clear loading")
	}

	close(gen.block)
	<-done

	if c.Loading() {
		t.Error("loading should be cleared after the reply")
	}
	if n := len(c.History()); n != 2 {
		t.Errorf("history has %d messages, want 2", n)
	}
}

func TestGenerateResponseRemoteFailureFallsBack(t *testing.T) {
	h := errorx.NewHandler()
	var kinds []errorx.Kind
	h.OnFailure = func(f *errorx.Failure) { kinds = append(kinds, f.Kind) }

	c := NewController(&fakeGenerator{available: true, err: errors.New("401 unauthorized")},
		testChatbotConfig(), WithErrorHandler(h))

	reply := c.GenerateResponse(context.Background(), "Tell me about your product line")
	if want := LocalFallback("product"); reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if !slices.Equal(kinds, []errorx.Kind{errorx.RemoteCallFailure}) {
		t.Errorf("reported kinds = %v, want [remote_call]", kinds)
	}
}

func TestGenerateResponseRemotePanicFallsBack(t *testing.T) {
	c := newTestController(&fakeGenerator{available: true, panicMsg: "nil client"})

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("GenerateResponse panicked: %v", r)
		}
	}()
	if reply, want := c.GenerateResponse(context.Background(), "thanks!"), LocalFallback("thanks"); reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestGenerateResponseUnavailableErrorFallsBack(t *testing.T) {
	c := newTestController(&fakeGenerator{available: true, err: ai.ErrUnavailable})

	if reply, want := c.GenerateResponse(context.Background(), "contact"), LocalFallback("contact"); reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestSendMessageApologyOnFailure(t *testing.T) {
	c := newTestController(&fakeGenerator{available: false},
		WithFallback(func(string) string { panic("broken canned replies") }))

	reply := mustSend(t, c, "hello")
	if reply.Content != ApologyMessage {
		t.Errorf("reply = %q, want apology", reply.Content)
	}
	if c.Loading() {
		t.Error("loading must be cleared after a failure")
	}
	if n := len(c.History()); n != 2 {
		t.Errorf("history has %d messages, want 2", n)
	}
}

func TestSendMessageRespectsHistoryCapacity(t *testing.T) {
	cfg := testChatbotConfig()
	cfg.MaxHistoryLength = 3
	c := NewController(&fakeGenerator{}, cfg, WithErrorHandler(errorx.NewHandler()))

	mustSend(t, c, "one")
	mustSend(t, c, "two")

	history := c.History()
	if len(history) != 3 {
		t.Fatalf("history has %d messages, want 3", len(history))
	}
	if history[0].Sender != SenderBot {
		t.Errorf("oldest kept message sender = %q, want bot", history[0].Sender)
	}
	if history[1].Content != "two" {
		t.Errorf("history[1].Content = %q, want %q", history[1].Content, "two")
	}
}

func TestObserverSeesEveryMessage(t *testing.T) {
	var seen []Message
	c := newTestController(&fakeGenerator{}, WithObserver(func(m Message) { seen = append(seen, m) }))

	mustSend(t, c, "hi")

	if len(seen) != 2 {
		t.Fatalf("observer saw %d messages, want 2", len(seen))
	}
	if seen[0].Sender != SenderUser || seen[1].Sender != SenderBot {
		t.Errorf("observer order = %s, %s; want user, bot", seen[0].Sender, seen[1].Sender)
	}
}

func TestHandleQuickAction(t *testing.T) {
	tests := []struct {
		action string
		query  string
	}{
		{"products", "Tell me about your products"},
		{"services", "What services do you offer?"},
		{"support", "I need help or support"},
		{"contact", "How can I contact you?"},
		{"unknown", "Tell me more about this."},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			c := newTestController(&fakeGenerator{})

			reply, err := c.HandleQuickAction(context.Background(), tt.action)
			if err != nil {
				t.Fatalf("HandleQuickAction() error: %v", err)
			}

			history := c.History()
			if len(history) != 2 {
				t.Fatalf("history has %d messages, want 2", len(history))
			}
			if history[0].Content != tt.query {
				t.Errorf("query = %q, want %q", history[0].Content, tt.query)
			}
			if want := LocalFallback(tt.query); reply.Content != want {
				t.Errorf("reply = %q, want %q", reply.Content, want)
			}
		})
	}
}

func TestOpenCloseToggle(t *testing.T) {
	c := newTestController(&fakeGenerator{})

	v := c.View()
	if v.Open {
		t.Error("widget should start closed")
	}
	if !slices.Equal(v.Classes, []string{ClassContainer}) {
		t.Errorf("classes = %v, want [%s]", v.Classes, ClassContainer)
	}

	c.Toggle()
	v = c.View()
	if !v.Open || !v.InputFocused {
		t.Errorf("after Toggle: open=%v focused=%v, want both true", v.Open, v.InputFocused)
	}
	if !slices.Contains(v.Classes, ClassOpen) {
		t.Errorf("classes %v missing %s", v.Classes, ClassOpen)
	}

	c.Toggle()
	v = c.View()
	if v.Open || v.InputFocused {
		t.Errorf("after second Toggle: open=%v focused=%v, want both false", v.Open, v.InputFocused)
	}
}

func TestToggleConcurrent(t *testing.T) {
	c := newTestController(&fakeGenerator{})

	// An even number of toggles from closed must end closed.
	const toggles = 200
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c.Toggle()
		}()
	}
	close(start)
	wg.Wait()

	if v := c.View(); v.Open || v.InputFocused {
		t.Errorf("after %d toggles: open=%v focused=%v, want closed", toggles, v.Open, v.InputFocused)
	}
}

type recordingFullscreen struct {
	enterErr error
	exitErr  error
	entered  int
	exited   int
}

func (r *recordingFullscreen) Enter() error { r.entered++; return r.enterErr }
func (r *recordingFullscreen) Exit() error  { r.exited++; return r.exitErr }

type affordance struct {
	fullscreen bool
	icon       string
	label      string
	classes    []string
}

func affordanceOf(v View) affordance {
	return affordance{v.Fullscreen, v.FullscreenIcon, v.FullscreenLabel, v.Classes}
}

func TestToggleFullscreenTwiceRestoresState(t *testing.T) {
	tests := []struct {
		name   string
		native Fullscreen
	}{
		{"native presenter", &recordingFullscreen{}},
		{"native rejects", &recordingFullscreen{enterErr: errors.New("permission denied")}},
		{"no native presenter", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.native != nil {
				opts = append(opts, WithNativeFullscreen(tt.native))
			}
			c := newTestController(&fakeGenerator{}, opts...)
			c.Open()

			before := affordanceOf(c.View())
			if before.icon != "expand" || before.label != "Enter fullscreen" {
				t.Errorf("initial affordance = %q/%q, want expand/Enter fullscreen", before.icon, before.label)
			}

			c.ToggleFullscreen()
			v := c.View()
			if !v.Fullscreen {
				t.Error("expected fullscreen after first toggle")
			}
			if v.FullscreenIcon != "compress" || v.FullscreenLabel != "Exit fullscreen" {
				t.Errorf("fullscreen affordance = %q/%q, want compress/Exit fullscreen", v.FullscreenIcon, v.FullscreenLabel)
			}
			if !slices.Contains(v.Classes, ClassFullscreen) {
				t.Errorf("classes %v missing %s", v.Classes, ClassFullscreen)
			}

			c.ToggleFullscreen()
			if after := affordanceOf(c.View()); !reflect.DeepEqual(before, after) {
				t.Errorf("after two toggles = %+v, want %+v", after, before)
			}
		})
	}
}

func TestToggleFullscreenFallbackReportsFailure(t *testing.T) {
	h := errorx.NewHandler()
	var kinds []errorx.Kind
	h.OnFailure = func(f *errorx.Failure) { kinds = append(kinds, f.Kind) }

	native := &recordingFullscreen{enterErr: ErrFullscreenUnsupported}
	c := NewController(&fakeGenerator{}, testChatbotConfig(), WithErrorHandler(h), WithNativeFullscreen(native))
	c.Open()
	c.ToggleFullscreen()

	if !c.View().Fullscreen {
		t.Error("expected layout fullscreen when native is refused")
	}
	if !c.layout.Active() {
		t.Error("expected layout fallback to be active")
	}
	if !slices.Equal(kinds, []errorx.Kind{errorx.FullscreenAPIFailure}) {
		t.Errorf("reported kinds = %v, want [fullscreen]", kinds)
	}

	c.ToggleFullscreen()
	if c.layout.Active() {
		t.Error("layout fallback still active after exit")
	}
	if native.exited != 0 {
		t.Errorf("native presenter exited %d times; it was never active", native.exited)
	}
}

func TestToggleFullscreenIgnoredWhenClosed(t *testing.T) {
	native := &recordingFullscreen{}
	c := newTestController(&fakeGenerator{}, WithNativeFullscreen(native))

	c.ToggleFullscreen()
	if c.View().Fullscreen {
		t.Error("fullscreen entered while closed")
	}
	if native.entered != 0 {
		t.Errorf("native presenter entered %d times, want 0", native.entered)
	}
}

func TestCloseExitsFullscreen(t *testing.T) {
	native := &recordingFullscreen{}
	c := newTestController(&fakeGenerator{}, WithNativeFullscreen(native))
	c.Open()
	c.ToggleFullscreen()
	if !c.View().Fullscreen {
		t.Fatal("expected fullscreen")
	}

	c.Close()
	v := c.View()
	if v.Open || v.Fullscreen {
		t.Errorf("after Close: open=%v fullscreen=%v, want both false", v.Open, v.Fullscreen)
	}
	if v.FullscreenIcon != "expand" || v.FullscreenLabel != "Enter fullscreen" {
		t.Errorf("affordance = %q/%q, want expand/Enter fullscreen", v.FullscreenIcon, v.FullscreenLabel)
	}
	if native.exited != 1 {
		t.Errorf("native presenter exited %d times, want 1", native.exited)
	}
}

func TestToggleClosesFullscreen(t *testing.T) {
	native := &recordingFullscreen{}
	c := newTestController(&fakeGenerator{}, WithNativeFullscreen(native))
	c.Open()
	c.ToggleFullscreen()

	c.Toggle()
	if v := c.View(); v.Open || v.Fullscreen {
		t.Errorf("after Toggle: open=%v fullscreen=%v, want both false", v.Open, v.Fullscreen)
	}
	if native.exited != 1 {
		t.Errorf("native presenter exited %d times, want 1", native.exited)
	}
}

type initGenerator struct {
	fakeGenerator
	initialized bool
}

func (g *initGenerator) Initialized() bool { return g.initialized }

func TestViewStatus(t *testing.T) {
	tests := []struct {
		name        string
		gen         Generator
		status      string
		placeholder string
	}{
		{"initializing", &initGenerator{}, StatusInitializing, "Ask me anything ..."},
		{"ready", &initGenerator{fakeGenerator: fakeGenerator{available: true}, initialized: true}, StatusReady, "Ask me anything..."},
		{"offline", &initGenerator{initialized: true}, StatusOffline, "Ask me anything (offline mode)..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestController(tt.gen).View()
			if v.Status != tt.status {
				t.Errorf("status = %q, want %q", v.Status, tt.status)
			}
			if v.Placeholder != tt.placeholder {
				t.Errorf("placeholder = %q, want %q", v.Placeholder, tt.placeholder)
			}
		})
	}
}

func TestViewLoadingAffordance(t *testing.T) {
	gen := &fakeGenerator{available: true, block: make(chan struct{}), started: make(chan struct{}, 1)}
	c := newTestController(gen)
	c.Open()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.SendMessage(context.Background(), "hi")
	}()
	<-gen.started

	v := c.View()
	if !v.Loading || v.InputEnabled || v.SendIcon != "spinner" {
		t.Errorf("loading view = loading:%v input:%v icon:%q, want true/false/spinner", v.Loading, v.InputEnabled, v.SendIcon)
	}

	close(gen.block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendMessage did not finish")
	}

	v = c.View()
	if !v.InputEnabled || v.SendIcon != "paper-plane" {
		t.Errorf("idle view = input:%v icon:%q, want true/paper-plane", v.InputEnabled, v.SendIcon)
	}
}

func TestConfigureUpdatesPresentation(t *testing.T) {
	c := newTestController(&fakeGenerator{})

	c.Configure(config.ChatbotConfig{Name: "Helpdesk", WelcomeMessage: "Hi there", MaxHistoryLength: 2})
	v := c.View()
	if v.Title != "Helpdesk" || v.Welcome != "Hi there" {
		t.Errorf("view title/welcome = %q/%q, want Helpdesk/Hi there", v.Title, v.Welcome)
	}

	for _, text := range []string{"a", "b", "c"} {
		mustSend(t, c, text)
	}
	if n := len(c.History()); n != 2 {
		t.Errorf("history has %d messages, want 2", n)
	}

	// Capacity is fixed once messages exist; empty fields keep current values.
	c.Configure(config.ChatbotConfig{MaxHistoryLength: 10})
	if n := len(c.History()); n != 2 {
		t.Errorf("history has %d messages after reconfigure, want 2", n)
	}
	if got := c.View().Title; got != "Helpdesk" {
		t.Errorf("title = %q, want Helpdesk", got)
	}
}
