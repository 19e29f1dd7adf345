// Package notifier publishes leaderboard updates across service instances.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizboard-backend/internal/config"
	"github.com/stemsi/quizboard-backend/internal/model"
)

// RedisNotifier publishes the leaderboard to a Redis channel. Every instance
// runs a worker.ScoreboardRelay that forwards the channel to its local hub,
// so subscribers on all instances receive the update.
type RedisNotifier struct {
	rdb     redis.Cmdable
	channel string
}

// NewRedisNotifier creates a RedisNotifier on the scoreboard channel.
func NewRedisNotifier(rdb redis.Cmdable) *RedisNotifier {
	return &RedisNotifier{
		rdb:     rdb,
		channel: config.CacheKey.ScoreboardChannel(),
	}
}

// BroadcastScores publishes scores. Publishing is fire-and-forget: Redis does
// not buffer for instances that are not subscribed.
func (n *RedisNotifier) BroadcastScores(ctx context.Context, scores []model.ScoreEntry) error {
	if scores == nil {
		scores = []model.ScoreEntry{}
	}
	payload, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish scores: %w", err)
	}
	return nil
}
