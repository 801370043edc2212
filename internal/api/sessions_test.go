package api

import (
	"testing"
	"time"

	"chatwidget/internal/chat"
	"chatwidget/internal/config"
)

func newRegistry() *SessionRegistry {
	return NewSessionRegistry(func(string) *chat.Controller {
		return chat.NewController(nil, config.Default().Chatbot)
	})
}

func TestSessionRegistryCreateGet(t *testing.T) {
	r := newRegistry()

	a := r.Create()
	b := r.Create()
	if a.ID == b.ID {
		t.Fatal("session ids should be unique")
	}
	if a.Controller == b.Controller {
		t.Fatal("sessions should not share a controller")
	}

	got, ok := r.Get(a.ID)
	if !ok || got != a {
		t.Errorf("Get(%s) = %v, %v", a.ID, got, ok)
	}
	if _, ok := r.Get("nope"); ok {
		t.Error("Get(unknown) should fail")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestSessionRegistryPrune(t *testing.T) {
	r := newRegistry()
	stale := r.Create()
	time.Sleep(30 * time.Millisecond)
	fresh := r.Create()

	removed := r.Prune(20 * time.Millisecond)
	if len(removed) != 1 || removed[0] != stale.ID {
		t.Fatalf("Prune() = %v, want [%s]", removed, stale.ID)
	}
	if _, ok := r.Get(fresh.ID); !ok {
		t.Error("fresh session should survive")
	}
}
