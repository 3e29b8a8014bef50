package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultRedisChannel is used when no channel is configured.
const DefaultRedisChannel = "prizedesk:changes"

// RedisFeed carries events over Redis pub/sub so every instance sees every commit.
type RedisFeed struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisFeed wraps client; an empty channel selects DefaultRedisChannel.
func NewRedisFeed(client redis.UniversalClient, channel string) *RedisFeed {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisFeed{client: client, channel: channel}
}

// Publish implements Publisher.
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if errPublish := f.client.Publish(ctx, f.channel, payload).Err(); errPublish != nil {
		return fmt.Errorf("realtime: redis publish: %w", errPublish)
	}
	return nil
}

// Subscribe implements Subscriber. Undecodable messages are logged and skipped.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps := f.client.Subscribe(ctx, f.channel)
	if _, errReceive := ps.Receive(ctx); errReceive != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("realtime: redis subscribe: %w", errReceive)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer func() { _ = ps.Close() }()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, errDecode := decodeEvent([]byte(msg.Payload))
				if errDecode != nil {
					log.WithError(errDecode).Warn("realtime: skip malformed redis message")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the underlying client.
func (f *RedisFeed) Close() error {
	return f.client.Close()
}

func encodeEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("realtime: encode event: %w", err)
	}
	return data, nil
}

func decodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("realtime: decode event: %w", err)
	}
	if ev.Entity == "" || ev.Operation == "" {
		return Event{}, fmt.Errorf("realtime: decode event: missing entity or operation")
	}
	return ev, nil
}
