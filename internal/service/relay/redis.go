package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"danceschool/entity"
	"danceschool/internal/lib/sl"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const publishTimeout = 3 * time.Second

// Local is the realtime layer of this instance.
type Local interface {
	NotifyNewMessage(event entity.NewMessageEvent)
}

type envelope struct {
	Origin string                 `json:"origin"`
	Event  entity.NewMessageEvent `json:"event"`
}

// Relay fans new message events out to every instance through a Redis channel.
// Events are delivered to the local hub directly and skipped when they come back
// from Redis with this instance's origin.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	local   Local
	log     *slog.Logger
}

func New(url, channel string, local Local, log *slog.Logger) (*Relay, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return newRelay(client, channel, local, log), nil
}

func newRelay(client *redis.Client, channel string, local Local, log *slog.Logger) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		log:     log.With(sl.Module("relay"), slog.String("channel", channel)),
	}
}

// NotifyNewMessage delivers locally and publishes in the background. A failed publish
// only means other instances miss the realtime push.
func (r *Relay) NotifyNewMessage(event entity.NewMessageEvent) {
	r.local.NotifyNewMessage(event)

	payload, err := json.Marshal(envelope{Origin: r.origin, Event: event})
	if err != nil {
		r.log.With(sl.Err(err)).Error("marshal event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
			r.log.With(
				sl.Err(err),
				slog.String("conversation", event.ConversationID.Hex()),
			).Warn("publish failed")
		}
	}()
}

// Run subscribes to the channel and delivers events from other instances until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: subscribe: %w", err)
	}
	r.log.Info("relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *Relay) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.log.With(sl.Err(err)).Warn("malformed relay payload")
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.local.NotifyNewMessage(env.Event)
}

func (r *Relay) Close() error {
	return r.client.Close()
}
