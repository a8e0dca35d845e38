package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-pizzeria-management/models"
)

type relayEnvelope struct {
	Origin string       `json:"origin"`
	Event  models.Event `json:"event"`
}

// RedisRelay shares events between server instances. Events published here
// reach the listeners connected to every other instance.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	origin  string
	local   Sink
	log     *logrus.Logger
}

func NewRedisRelay(redisURL, channel string, local Sink, log *logrus.Logger) (*RedisRelay, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisRelay{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		log:     log,
	}, nil
}

func (r *RedisRelay) Name() string { return "redis" }

func (r *RedisRelay) Send(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(relayEnvelope{Origin: r.origin, Event: event})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return r.rdb.Publish(ctx, r.channel, data).Err()
}

// Run forwards events from other instances to the local sink until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, payload string) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.log.WithError(err).Warn("discarding malformed relay message")
		return
	}
	if env.Origin == r.origin {
		return
	}
	if err := r.local.Send(ctx, env.Event); err != nil {
		r.log.WithError(err).Warn("relayed event not delivered")
	}
}

func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}
