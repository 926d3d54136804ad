package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

const channelPrefix = "chat:"

// ChannelName is the pub/sub channel carrying live messages for receiverID.
func ChannelName(receiverID string) string {
	return channelPrefix + receiverID
}

// Broadcaster fans payloads out to whoever is subscribed to a channel at
// publish time. Delivery is at most once.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription is a live feed of one channel. Close releases it and closes Messages.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// RedisBroadcaster uses Redis PUBLISH/SUBSCRIBE so every instance sees every message.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so no publish after return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &redisSubscription{ps: ps, out: make(chan []byte)}
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	out  chan []byte
	once sync.Once
	err  error
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	// ps.Channel is closed by ps.Close.
	for msg := range s.ps.Channel() {
		s.out <- []byte(msg.Payload)
	}
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		// Unblock pump if nobody is reading anymore.
		go func() {
			for range s.out {
			}
		}()
	})
	return s.err
}

// MemoryBroadcaster is a single-process broker. Slow subscribers drop messages
// rather than stall publishers.
type MemoryBroadcaster struct {
	mu     sync.Mutex
	subs   map[string]map[*memorySubscription]struct{}
	buffer int
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{
		subs:   make(map[string]map[*memorySubscription]struct{}),
		buffer: 64,
	}
}

func (b *MemoryBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[channel] {
		msg := append([]byte(nil), payload...)
		select {
		case sub.ch <- msg:
		default:
		}
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{
		broker:  b,
		channel: channel,
		ch:      make(chan []byte, b.buffer),
	}
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}

// Subscribers reports how many live subscriptions channel has.
func (b *MemoryBroadcaster) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

type memorySubscription struct {
	broker  *MemoryBroadcaster
	channel string
	ch      chan []byte
	once    sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		delete(b.subs[s.channel], s)
		if len(b.subs[s.channel]) == 0 {
			delete(b.subs, s.channel)
		}
		close(s.ch)
		b.mu.Unlock()
	})
	return nil
}
