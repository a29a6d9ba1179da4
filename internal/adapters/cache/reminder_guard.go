package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

// guardTTL outlives the day bucket so a pass straddling midnight cannot
// double-remind, and short enough that keys clean themselves up.
const guardTTL = 48 * time.Hour

// RedisReminderGuard deduplicates reminders by (person, type, day) with a
// SET NX claim. Two workers racing on the same bucket resolve to exactly one
// winner.
type RedisReminderGuard struct {
	redis *redis.Client
}

var _ ports.ReminderGuard = (*RedisReminderGuard)(nil)

func NewRedisReminderGuard(redisClient *redis.Client) *RedisReminderGuard {
	return &RedisReminderGuard{redis: redisClient}
}

func (g *RedisReminderGuard) Acquire(ctx context.Context, personID string, notifType domain.NotificationType, day time.Time) (bool, error) {
	key := fmt.Sprintf("ruachconnect:reminder:%s:%s:%s",
		notifType, personID, day.UTC().Format("2006-01-02"))
	ok, err := g.redis.SetNX(ctx, key, "1", guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire reminder guard %s: %w", key, err)
	}
	return ok, nil
}
