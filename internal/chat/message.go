package chat

import (
	"sync"
	"time"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry in the chat transcript.
type Message struct {
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a bounded, ordered message log. When full, pushing evicts the
// oldest entry.
type History struct {
	mu       sync.RWMutex
	capacity int
	buf      []Message
	start    int
	size     int
}

// NewHistory creates a history holding at most capacity messages.
// Non-positive capacities fall back to 50.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 50
	}
	return &History{
		capacity: capacity,
		buf:      make([]Message, capacity),
	}
}

// Push appends msg, evicting the oldest message when at capacity.
func (h *History) Push(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size < h.capacity {
		h.buf[(h.start+h.size)%h.capacity] = msg
		h.size++
		return
	}
	h.buf[h.start] = msg
	h.start = (h.start + 1) % h.capacity
}

// Messages returns a copy of the stored messages, oldest first.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%h.capacity]
	}
	return out
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap returns the history capacity.
func (h *History) Cap() int {
	return h.capacity
}
