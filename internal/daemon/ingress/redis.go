// Package ingress feeds presence commands from external message buses into
// the dispatcher.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/watchfire-io/nearby/internal/daemon/protocol"
)

const connectTimeout = 5 * time.Second

// Redis subscribes to a pub/sub channel carrying JSON command frames or bare
// presence snapshots, which are applied to every visible surface. A frame
// with replyTo gets its response published on that channel.
type Redis struct {
	client  *redis.Client
	channel string
	handler protocol.Handler
	ready   chan struct{}
}

// NewRedis connects to redisURL and prepares a subscriber for channel.
func NewRedis(redisURL, channel string, h protocol.Handler) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{
		client:  client,
		channel: channel,
		handler: h,
		ready:   make(chan struct{}),
	}, nil
}

// Ready is closed once the subscription is active.
func (r *Redis) Ready() <-chan struct{} {
	return r.ready
}

// Run consumes frames until ctx is canceled.
func (r *Redis) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Wait for confirmation that subscription is created
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	close(r.ready)
	log.Printf("[redis] Subscribed to %s", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *Redis) handle(ctx context.Context, payload string) {
	req, err := protocol.DecodeSnapshot([]byte(payload))
	if err != nil {
		log.Printf("[redis] Dropping frame: %v", err)
		if req.ReplyTo != "" {
			r.reply(ctx, req.ReplyTo, protocol.Failure(req.ID, err))
		}
		return
	}

	resp := protocol.Execute(ctx, r.handler, req)
	if resp.Error != "" {
		log.Printf("[redis] %s failed: %s", req.Method, resp.Error)
	}
	if req.ReplyTo != "" {
		r.reply(ctx, req.ReplyTo, resp)
	}
}

func (r *Redis) reply(ctx context.Context, channel string, resp protocol.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[redis] Encode reply: %v", err)
		return
	}
	if err := r.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[redis] Publish reply to %s: %v", channel, err)
	}
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
