package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"chatwidget/internal/chat"
	"chatwidget/internal/config"
	"chatwidget/internal/errorx"
	"chatwidget/internal/logger"
	"chatwidget/internal/sanitize"
)

// Status describes the completion service as the widget status line shows it.
type Status struct {
	Available   bool   `json:"available"`
	Status      string `json:"status"`
	StatusClass string `json:"status_class"`
	Placeholder string `json:"placeholder"`
	Model       string `json:"model,omitempty"`
	InitFailure string `json:"init_failure,omitempty"`
	Sessions    int    `json:"sessions"`
}

// Transcript is a persisted message returned by the transcript endpoint.
type Transcript struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Backend supplies controllers and service status to the HTTP API.
type Backend interface {
	SessionController(sessionID string) *chat.Controller
	Status() Status
	// Transcript returns stored messages for a session. ok is false when
	// persistence is disabled.
	Transcript(sessionID string, limit int) (msgs []Transcript, ok bool, err error)
}

// APIServer serves the widget embedding API
type APIServer struct {
	config   config.ServerConfig
	backend  Backend
	sessions *SessionRegistry
	limiter  *RateLimiter
	server   *http.Server
	uptime   time.Time

	// SessionIdle is how long an untouched session is kept.
	SessionIdle time.Duration
}

// NewAPIServer creates a new API server instance
func NewAPIServer(cfg config.ServerConfig, backend Backend) *APIServer {
	return &APIServer{
		config:      cfg,
		backend:     backend,
		sessions:    NewSessionRegistry(backend.SessionController),
		limiter:     NewRateLimiter(cfg.RateLimit, time.Minute),
		uptime:      time.Now(),
		SessionIdle: 30 * time.Minute,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/sessions", s.handleCreateSession)
	mux.HandleFunc("/api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("/api/sessions/{id}/messages", s.handleSend)
	mux.HandleFunc("/api/sessions/{id}/quick/{action}", s.handleQuick)
	mux.HandleFunc("/api/sessions/{id}/toggle", s.handleToggle)
	mux.HandleFunc("/api/sessions/{id}/close", s.handleClose)
	mux.HandleFunc("/api/sessions/{id}/fullscreen", s.handleFullscreen)
	mux.HandleFunc("/api/sessions/{id}/transcript", s.handleTranscript)

	handler := loggingMiddleware(mux)
	handler = corsMiddleware(handler)
	handler = authMiddleware(s.config.APIKey)(handler)
	return handler
}

// Start listens on the configured port and serves until ctx is cancelled.
func (s *APIServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *APIServer) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// Replies wait on the completion service.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("🌐 API server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Stop(context.Background())
	case err := <-errCh:
		return err
	}
}

// Stop gracefully shuts down the HTTP server
func (s *APIServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	logger.Infof("Stopping API server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func (s *APIServer) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.sessions.Prune(s.SessionIdle) {
				s.limiter.Forget(id)
				logger.Debugf("[API] pruned idle session %s", id)
			}
		}
	}
}

// handleHealth returns service health status
func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.uptime).Round(time.Second).String()
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleStatus returns completion service status
func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := s.backend.Status()
	status.Sessions = s.sessions.Len()
	writeJSON(w, status)
}

// CreateSessionResponse is returned when a widget instance is created.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Welcome   string `json:"welcome"`
}

func (s *APIServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := s.sessions.Create()
	logger.Debugf("[API] created session %s", session.ID)
	writeJSONStatus(w, http.StatusCreated, CreateSessionResponse{
		SessionID: session.ID,
		Welcome:   session.Controller.View().Welcome,
	})
}

// messageJSON is a transcript entry with its rendered HTML.
type messageJSON struct {
	chat.Message
	HTML string `json:"html"`
}

// ViewResponse is the widget state for one session.
type ViewResponse struct {
	chat.View
	SessionID string        `json:"session_id"`
	Messages  []messageJSON `json:"messages"`
}

func newViewResponse(id string, v chat.View) ViewResponse {
	msgs := make([]messageJSON, len(v.Messages))
	for i, m := range v.Messages {
		msgs[i] = messageJSON{Message: m, HTML: chat.FormatMessage(m.Content)}
	}
	return ViewResponse{View: v, SessionID: id, Messages: msgs}
}

// lookup resolves the {id} path value, writing 404 when unknown.
func (s *APIServer) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeJSONError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (s *APIServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, newViewResponse(session.ID, session.Controller.View()))
}

// SendRequest is a user message
type SendRequest struct {
	Text string `json:"text"`
}

// SendResponse carries the bot reply and the resulting widget state.
type SendResponse struct {
	Reply messageJSON  `json:"reply"`
	View  ViewResponse `json:"view"`
}

func (s *APIServer) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.send(w, r, session, sanitize.Input(req.Text))
}

func (s *APIServer) handleQuick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.send(w, r, session, chat.QuickQuery(r.PathValue("action")))
}

func (s *APIServer) send(w http.ResponseWriter, r *http.Request, session *Session, text string) {
	// Rejected sends must not count against the rate limit.
	if session.Controller.Loading() {
		writeSendError(w, chat.ErrBusy)
		return
	}
	if strings.TrimSpace(text) != "" && !s.limiter.Allow(session.ID) {
		cooldown := s.limiter.RemainingCooldown(session.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(cooldown.Seconds())+1))
		writeJSONError(w, "Too many messages, slow down", http.StatusTooManyRequests)
		return
	}

	// A client disconnect does not cancel the reply; it still lands in
	// the transcript.
	ctx := context.WithoutCancel(r.Context())
	reply, err := session.Controller.SendMessage(ctx, text)
	if err != nil {
		writeSendError(w, err)
		return
	}

	writeJSON(w, SendResponse{
		Reply: messageJSON{Message: reply, HTML: chat.FormatMessage(reply.Content)},
		View:  newViewResponse(session.ID, session.Controller.View()),
	})
}

// writeSendError maps a send failure to a response. Only user errors expose
// their message.
func writeSendError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, chat.ErrBusy) {
		status = http.StatusConflict
	}

	msg, ok := errorx.UserMessage(err)
	if !ok {
		logger.Errorf("Send failed: %v", err)
		writeJSONError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}
	writeJSONError(w, msg, status)
}

func (s *APIServer) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.stateChange(w, r, (*chat.Controller).Toggle)
}

func (s *APIServer) handleClose(w http.ResponseWriter, r *http.Request) {
	s.stateChange(w, r, (*chat.Controller).Close)
}

func (s *APIServer) handleFullscreen(w http.ResponseWriter, r *http.Request) {
	s.stateChange(w, r, (*chat.Controller).ToggleFullscreen)
}

func (s *APIServer) stateChange(w http.ResponseWriter, r *http.Request, fn func(*chat.Controller)) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	fn(session.Controller)
	writeJSON(w, newViewResponse(session.ID, session.Controller.View()))
}

func (s *APIServer) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.PathValue("id")

	msgs, ok, err := s.backend.Transcript(id, 0)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("Failed to load transcript: %v", err), http.StatusInternalServerError)
		return
	}
	if !ok {
		writeJSONError(w, "Transcript storage is disabled", http.StatusNotFound)
		return
	}
	if msgs == nil {
		msgs = []Transcript{}
	}
	writeJSON(w, map[string]interface{}{
		"session_id": id,
		"messages":   msgs,
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSONStatus(w, status, map[string]interface{}{
		"error": message,
	})
}
