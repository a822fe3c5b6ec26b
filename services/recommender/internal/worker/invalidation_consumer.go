package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Invalidator drops cached recommendations for one user.
type Invalidator interface {
	InvalidateUserCache(ctx context.Context, userID string) error
}

// userChangedEvent is the payload published whenever a user's taste
// signals change.
type userChangedEvent struct {
	UserID string `json:"user_id"`
}

// Subjects that carry taste-signal changes. Any of them makes every
// cached recommendation for that user stale.
var invalidationSubjects = []string{
	"user.favorites.changed",
	"user.preferences.changed",
	"user.history.changed",
}

const invalidateTimeout = 5 * time.Second

// StartInvalidationConsumer subscribes to taste-signal change events and
// drops the affected user's cached recommendations. Returned subscriptions
// are drained when ctx ends.
func StartInvalidationConsumer(ctx context.Context, nc *nats.Conn, inv Invalidator, log *zap.Logger) error {
	subs := make([]*nats.Subscription, 0, len(invalidationSubjects))
	for _, subject := range invalidationSubjects {
		subject := subject
		sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
			var ev userChangedEvent
			if err := json.Unmarshal(m.Data, &ev); err != nil {
				log.Warn("invalid invalidation event", zap.String("subject", subject), zap.Error(err))
				return
			}
			if ev.UserID == "" {
				log.Warn("invalidation event without user_id", zap.String("subject", subject))
				return
			}
			cctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
			defer cancel()
			// TTL expiry bounds the staleness window when the store is
			// unreachable, so a failed delete is logged, not retried.
			if err := inv.InvalidateUserCache(cctx, ev.UserID); err != nil {
				log.Warn("event-driven invalidation failed",
					zap.String("subject", subject),
					zap.String("user_id", ev.UserID),
					zap.Error(err))
				return
			}
			log.Debug("cache invalidated",
				zap.String("subject", subject),
				zap.String("user_id", ev.UserID))
		})
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return err
		}
		subs = append(subs, sub)
	}

	go func() {
		<-ctx.Done()
		for _, s := range subs {
			if err := s.Drain(); err != nil {
				log.Warn("drain subscription", zap.Error(err))
			}
		}
	}()

	log.Info("invalidation consumer started", zap.Int("subjects", len(invalidationSubjects)))
	return nil
}
