package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/config"
)

// Store keeps in-progress registrations. Get returns nil, nil when the user
// has no session or it has expired.
type Store interface {
	Get(ctx context.Context, userId int64) (*entity.Session, error)
	Put(ctx context.Context, s *entity.Session) error
	Delete(ctx context.Context, userId int64) error
}

// New returns the backend selected by session.driver.
func New(conf config.Session, log *slog.Logger) (Store, error) {
	switch conf.Driver {
	case "", "memory":
		return NewMemory(conf.TTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		return NewRedis(client, conf.TTL, log), nil
	default:
		return nil, fmt.Errorf("unknown session driver: %s", conf.Driver)
	}
}
