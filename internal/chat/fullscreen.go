package chat

import (
	"errors"
	"sync"
)

// ErrFullscreenUnsupported is returned by presenters that cannot go fullscreen
// on the current platform.
var ErrFullscreenUnsupported = errors.New("fullscreen not supported")

// Fullscreen is a way of presenting the widget over the whole viewport.
// The controller tries the native presenter first and falls back to the
// layout presenter when Enter fails.
type Fullscreen interface {
	Enter() error
	Exit() error
}

// LayoutFullscreen is the fallback presenter: it only switches the widget's
// own layout to fill the viewport, so it cannot fail.
type LayoutFullscreen struct {
	mu     sync.Mutex
	active bool
}

func (l *LayoutFullscreen) Enter() error {
	l.mu.Lock()
	l.active = true
	l.mu.Unlock()
	return nil
}

func (l *LayoutFullscreen) Exit() error {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()
	return nil
}

// Active reports whether the layout fallback is in effect.
func (l *LayoutFullscreen) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// unsupportedFullscreen stands in when no native presenter is configured.
type unsupportedFullscreen struct{}

func (unsupportedFullscreen) Enter() error { return ErrFullscreenUnsupported }
func (unsupportedFullscreen) Exit() error  { return ErrFullscreenUnsupported }
