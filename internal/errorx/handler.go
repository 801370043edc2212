package errorx

import (
	"errors"
	"fmt"
	"runtime/debug"

	"chatwidget/internal/logger"
)

// ErrorLevel represents the severity of an error
type ErrorLevel int

const (
	// InfoLevel for informational messages
	InfoLevel ErrorLevel = iota
	// WarningLevel for warnings
	WarningLevel
	// ErrLevel for errors
	ErrLevel
	// CriticalLevel for critical errors
	CriticalLevel
)

// Kind classifies a recoverable widget failure.
type Kind int

const (
	// ConfigLoadFailure means the configuration could not be read; defaults are used.
	ConfigLoadFailure Kind = iota + 1
	// RemoteClientInitFailure means the completion client could not be built.
	RemoteClientInitFailure
	// RemoteCallFailure means a completion request failed; a canned reply is used.
	RemoteCallFailure
	// FullscreenAPIFailure means native fullscreen was refused; the layout fallback is used.
	FullscreenAPIFailure
)

func (k Kind) String() string {
	switch k {
	case ConfigLoadFailure:
		return "config_load"
	case RemoteClientInitFailure:
		return "remote_client_init"
	case RemoteCallFailure:
		return "remote_call"
	case FullscreenAPIFailure:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// Failure is a classified error that was recovered from.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the failure kind carried by err, or 0.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// Handler provides centralized error handling
type Handler struct {
	// RecoveryEnabled determines if panics should be recovered
	RecoveryEnabled bool
	// LogStackTraces determines if stack traces should be logged
	LogStackTraces bool
	// OnCritical callback for critical errors
	OnCritical func(error)
	// OnFailure observes every reported failure.
	OnFailure func(*Failure)
}

// NewHandler creates a new error handler
func NewHandler() *Handler {
	return &Handler{
		RecoveryEnabled: true,
		LogStackTraces:  false,
	}
}

// Handle processes an error with the given level
func (h *Handler) Handle(err error, level ErrorLevel, msg string) {
	if err == nil {
		return
	}

	formatted := fmt.Sprintf("%s: %v", msg, err)

	switch level {
	case InfoLevel:
		logger.Infof("%s", formatted)
	case WarningLevel:
		logger.Warnf("%s", formatted)
	case ErrLevel:
		logger.Errorf("%s", formatted)
		if h.LogStackTraces {
			logger.Debugf("Stack trace:\n%s", debug.Stack())
		}
	case CriticalLevel:
		logger.Errorf("CRITICAL %s", formatted)
		if h.LogStackTraces {
			logger.Debugf("Stack trace:\n%s", debug.Stack())
		}
		if h.OnCritical != nil {
			h.OnCritical(err)
		}
	}
}

// Report logs a recovered failure of the given kind and returns it wrapped.
// Nothing reported here is fatal to the interaction.
func (h *Handler) Report(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	f := &Failure{Kind: kind, Err: err}

	level := WarningLevel
	if kind == RemoteCallFailure || kind == RemoteClientInitFailure {
		level = ErrLevel
	}
	h.Handle(err, level, "recovered "+kind.String()+" failure")

	if h.OnFailure != nil {
		h.OnFailure(f)
	}
	return f
}

// HandleWithRecovery wraps a function with panic recovery
func (h *Handler) HandleWithRecovery(fn func() error) (err error) {
	if !h.RecoveryEnabled {
		return fn()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
			h.Handle(err, CriticalLevel, "Panic recovered")
		}
	}()

	return fn()
}

// UserError represents an error that can be shown to users
type UserError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e UserError) Unwrap() error { return e.Err }

// NewUserError creates a new user-friendly error
func NewUserError(msg string, err error) UserError {
	return UserError{Message: msg, Err: err}
}

// UserMessage returns the message of the first UserError in err's chain.
func UserMessage(err error) (string, bool) {
	var ue UserError
	if errors.As(err, &ue) {
		return ue.Message, true
	}
	return "", false
}

// DefaultHandler is the default error handler instance
var DefaultHandler = NewHandler()
