package sse

import (
	"sync"
)

// Message is one server-sent event addressed to a topic.
type Message struct {
	Topic string
	Event string
	Data  interface{}
}

// Hub fans messages out to the subscribers of a topic. Topics are tenant ids
// for the timesheet event stream.
type Hub struct {
	mu          sync.RWMutex
	bufferSize  int
	subscribers map[string]map[chan Message]struct{}
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		bufferSize:  bufferSize,
		subscribers: make(map[string]map[chan Message]struct{}),
	}
}

// Subscribe registers a listener on topic and returns its channel and the
// function that unregisters it.
func (h *Hub) Subscribe(topic string) (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Message, h.bufferSize)
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Message]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[topic], ch)
			close(ch)
			if len(h.subscribers[topic]) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}

	return ch, cleanup
}

// Publish delivers msg to every subscriber of msg.Topic. Slow subscribers
// whose buffer is full miss the message; Publish never blocks.
func (h *Hub) Publish(msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers[msg.Topic] {
		select {
		case ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// SubscriberCount returns the number of active subscribers for topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}
