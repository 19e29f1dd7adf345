package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/config"
	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/service"
)

const relayRetryDelay = 2 * time.Second

// ScoreboardRelay forwards leaderboard updates published on the Redis
// scoreboard channel to this instance's subscribers.
type ScoreboardRelay struct {
	rdb  *redis.Client
	sink service.ScoreNotifier
	log  zerolog.Logger
}

func NewScoreboardRelay(rdb *redis.Client, sink service.ScoreNotifier, log zerolog.Logger) *ScoreboardRelay {
	return &ScoreboardRelay{
		rdb:  rdb,
		sink: sink,
		log:  log.With().Str("component", "scoreboard_relay").Logger(),
	}
}

// Start subscribes and relays until ctx is cancelled. A broken subscription
// is re-established after a short delay; updates published meanwhile are lost.
func (w *ScoreboardRelay) Start(ctx context.Context) {
	channel := config.CacheKey.ScoreboardChannel()
	w.log.Info().Str("channel", channel).Msg("ScoreboardRelay started")

	for {
		pubsub := w.rdb.Subscribe(ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				break
			}
			w.log.Error().Err(err).Msg("Subscribe failed, retrying")
			select {
			case <-ctx.Done():
			case <-time.After(relayRetryDelay):
			}
			continue
		}

		w.relay(ctx, pubsub.Channel())
		_ = pubsub.Close()

		if ctx.Err() != nil {
			break
		}
		w.log.Warn().Msg("Subscription closed, resubscribing")
	}

	w.log.Info().Msg("ScoreboardRelay stopped")
}

// relay drains ch until it closes or ctx is done.
func (w *ScoreboardRelay) relay(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var scores []model.ScoreEntry
			if err := json.Unmarshal([]byte(msg.Payload), &scores); err != nil {
				w.log.Error().Err(err).Msg("Invalid scoreboard payload")
				continue
			}

			if err := w.sink.BroadcastScores(ctx, scores); err != nil {
				w.log.Error().Err(err).Msg("Local broadcast failed")
			}
		}
	}
}
