package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "seats:"

// RedisBridge shares snapshots between instances over Redis Pub/Sub. Local
// subscribers receive snapshots through the hub once Redis echoes them back.
type RedisBridge struct {
	client redis.UniversalClient
	hub    *Hub
	logger *slog.Logger
	queue  chan Snapshot
}

func NewRedisBridge(client redis.UniversalClient, hub *Hub, logger *slog.Logger, queueSize int) *RedisBridge {
	return &RedisBridge{
		client: client,
		hub:    hub,
		logger: logger,
		queue:  make(chan Snapshot, queueSize),
	}
}

func (b *RedisBridge) Publish(key domain.ShowtimeKey, seats []domain.ReservedSeat) {
	snapshot := Snapshot{
		Showtime:    key,
		Seats:       slices.Clone(seats),
		PublishedAt: time.Now(),
	}

	select {
	case b.queue <- snapshot:
	default:
		b.logger.Warn("broadcast queue is full, delivering snapshot locally only", "showtime", key.Hash())
		metrics.BroadcastLocalFallbacks.WithLabelValues("queue_full").Inc()
		b.hub.deliver(snapshot)
	}
}

// Run relays queued snapshots to Redis and remote snapshots to the hub until
// ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	if err != nil {
		return errors.Wrap(err, "subscribe to seat channels")
	}

	messages := pubsub.Channel()

	b.logger.Info("broadcast bridge started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot := <-b.queue:
			b.publish(ctx, snapshot)
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.receive(msg)
		}
	}
}

func (b *RedisBridge) publish(ctx context.Context, snapshot Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		b.logger.Error("failed to marshal seat snapshot", "error", err)
		return
	}

	err = b.client.Publish(ctx, channelPrefix+snapshot.Showtime.Hash(), payload).Err()
	if err != nil {
		b.logger.Error("failed to publish seat snapshot, delivering locally", "error", err)
		metrics.BroadcastLocalFallbacks.WithLabelValues("publish_failed").Inc()
		b.hub.deliver(snapshot)
	}
}

func (b *RedisBridge) receive(msg *redis.Message) {
	var snapshot Snapshot

	err := json.Unmarshal([]byte(msg.Payload), &snapshot)
	if err != nil {
		b.logger.Error("failed to unmarshal seat snapshot", "channel", msg.Channel, "error", err)
		return
	}

	b.hub.deliver(snapshot)
}
