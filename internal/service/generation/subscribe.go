package generation

import (
	"strconv"
	"sync"
)

const subscriberBuffer = 32

// Event is one state change published by a running job. ID increases per job.
type Event struct {
	ID       string
	Type     string
	Data     []byte
	Progress int
}

// Subscription receives a running job's events. Events is closed once the job
// has recorded its terminal state or the subscription is closed.
type Subscription struct {
	// LastID is the id of the newest event published before subscribing
	LastID string
	Events <-chan Event

	once   sync.Once
	remove func()
}

// Close stops delivery. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.remove)
}

// hub fans a job's events out to its subscribers
type hub struct {
	mu      sync.Mutex
	seq     int
	next    int
	closed  bool
	clients map[int]chan Event
}

func newHub() *hub {
	return &hub{clients: make(map[int]chan Event)}
}

func (h *hub) subscribe() (*Subscription, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}

	id := h.next
	h.next++
	ch := make(chan Event, subscriberBuffer)
	h.clients[id] = ch

	return &Subscription{
		LastID: strconv.Itoa(h.seq),
		Events: ch,
		remove: func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.clients[id]; ok {
				delete(h.clients, id)
				close(c)
			}
		},
	}, true
}

// publish never blocks; a subscriber with a full buffer misses the event
func (h *hub) publish(eventType string, data []byte, progress int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.seq++
	ev := Event{ID: strconv.Itoa(h.seq), Type: eventType, Data: data, Progress: progress}
	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.clients {
		delete(h.clients, id)
		close(ch)
	}
}

// Subscribe attaches to the job generating documentID in this process. It
// reports false when no such job is running here.
func (e *Engine) Subscribe(documentID string) (*Subscription, bool) {
	e.mu.Lock()
	handle := e.jobs[documentID]
	e.mu.Unlock()

	if handle == nil {
		return nil, false
	}
	return handle.events.subscribe()
}
