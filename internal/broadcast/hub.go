// Package broadcast fans out seat snapshots to everyone watching a showtime.
package broadcast

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/metrics"
)

const DefaultBufferSize = 16

// Snapshot is the full reserved set of a showtime at publish time.
type Snapshot struct {
	Showtime    domain.ShowtimeKey    `json:"showtime"`
	Seats       []domain.ReservedSeat `json:"reservedSeats"`
	PublishedAt time.Time             `json:"publishedAt"`
}

// Hub delivers snapshots to in-process subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the snapshot. There is no replay, so
// late joiners read the inventory first.
type Hub struct {
	mu     sync.RWMutex
	logger *slog.Logger
	buffer int
	closed bool
	topics map[string]map[*Subscription]struct{}
}

func NewHub(logger *slog.Logger, buffer int) *Hub {
	if buffer < 1 {
		buffer = DefaultBufferSize
	}

	return &Hub{
		logger: logger,
		buffer: buffer,
		topics: make(map[string]map[*Subscription]struct{}),
	}
}

type Subscription struct {
	C <-chan Snapshot

	ch    chan Snapshot
	hub   *Hub
	topic string
	once  sync.Once
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

func (h *Hub) Subscribe(key domain.ShowtimeKey) *Subscription {
	ch := make(chan Snapshot, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h, topic: key.Hash()}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.once.Do(func() { close(ch) })
		return sub
	}

	subs, ok := h.topics[sub.topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[sub.topic] = subs
	}
	subs[sub] = struct{}{}

	return sub
}

func (h *Hub) Publish(key domain.ShowtimeKey, seats []domain.ReservedSeat) {
	h.deliver(Snapshot{
		Showtime:    key,
		Seats:       slices.Clone(seats),
		PublishedAt: time.Now(),
	})
}

// Close detaches every subscriber. Subscriptions made afterwards are closed
// right away.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true

	var subs []*Subscription
	for _, topic := range h.topics {
		for sub := range topic {
			subs = append(subs, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Subscribers returns the number of live subscriptions for a showtime.
func (h *Hub) Subscribers(key domain.ShowtimeKey) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[key.Hash()])
}

func (h *Hub) deliver(snapshot Snapshot) {
	topic := snapshot.Showtime.Hash()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.topics[topic] {
		select {
		case sub.ch <- snapshot:
			metrics.BroadcastDelivered.Inc()
		default:
			metrics.BroadcastDropped.Inc()
			h.logger.Warn("dropped seat snapshot for slow subscriber", "showtime", topic)
		}
	}
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}

	close(sub.ch)
}
