package out

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"saferun/internal/modules/notify/domain"
	notifyout "saferun/internal/modules/notify/port/out"
)

// RedisGateway publishes messages on a pub/sub channel for a downstream SMS
// worker. A publish that reached no subscriber counts as undelivered.
type RedisGateway struct {
	client  *redis.Client
	channel string
}

var _ notifyout.Gateway = (*RedisGateway)(nil)

func NewRedisGateway(client *redis.Client, channel string) *RedisGateway {
	return &RedisGateway{client: client, channel: channel}
}

func (g *RedisGateway) Name() string { return "redis" }

func (g *RedisGateway) Send(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}
	receivers, err := g.client.Publish(ctx, g.channel, data).Result()
	if err != nil {
		return errors.Wrap(err, "failed to publish message")
	}
	if receivers == 0 {
		return errors.Errorf("no subscriber on channel %s", g.channel)
	}
	return nil
}
