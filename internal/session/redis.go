package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/lib/sl"
)

const redisKeyPrefix = "daftaren:session:"

// Redis keeps sessions as JSON values with a TTL, so they survive restarts.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		log:    log.With(sl.Module("session.redis")),
	}
}

func redisKey(userId int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userId)
}

func (r *Redis) Get(ctx context.Context, userId int64) (*entity.Session, error) {
	data, err := r.client.Get(ctx, redisKey(userId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var s entity.Session
	if err = json.Unmarshal(data, &s); err != nil {
		r.log.Warn("dropping unreadable session", slog.Int64("user_id", userId), sl.Err(err))
		_ = r.client.Del(ctx, redisKey(userId)).Err()
		return nil, nil
	}
	return &s, nil
}

func (r *Redis) Put(ctx context.Context, s *entity.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err = r.client.Set(ctx, redisKey(s.UserId), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, userId int64) error {
	if err := r.client.Del(ctx, redisKey(userId)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
