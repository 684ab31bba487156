package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"socketWhiteboard/internal/models/broker"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBroker fans out through a Redis channel so that members connected to other instances
// receive room events too. Every instance publishes and subscribes on the same channel.
type RedisBroker struct {
	redis   *redis.Client
	channel string

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisBroker(redis *redis.Client, channel string) *RedisBroker {
	return &RedisBroker{
		redis:   redis,
		channel: channel,
	}
}

func (rb *RedisBroker) Publish(ctx context.Context, message broker.PublishedMessage) error {
	jsonMessage, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return rb.redis.Publish(ctx, rb.channel, jsonMessage).Err()
}

// Subscribe confirms the subscription before returning, then hands every message to handler
// on a background goroutine until Close is called.
func (rb *RedisBroker) Subscribe(ctx context.Context, handler func(broker.PublishedMessage)) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.pubsub != nil {
		return errors.New("redis broker: already subscribed")
	}

	pubsub := rb.redis.Subscribe(ctx, rb.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	rb.pubsub = pubsub
	rb.done = make(chan struct{})

	go rb.handleRedisMessages(pubsub.Channel(), handler, rb.done)
	return nil
}

func (rb *RedisBroker) handleRedisMessages(ch <-chan *redis.Message, handler func(broker.PublishedMessage), done chan struct{}) {
	defer close(done)
	for msg := range ch {
		var message broker.PublishedMessage
		if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
			logrus.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed broker message")
			continue
		}
		handler(message)
	}
}

// Close ends the subscription and waits for the consumer goroutine to finish.
func (rb *RedisBroker) Close() error {
	rb.mu.Lock()
	pubsub, done := rb.pubsub, rb.done
	rb.pubsub, rb.done = nil, nil
	rb.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	return err
}
