package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/config"
)

// Store persists the registration document as a whole.
type Store interface {
	Load(ctx context.Context) (*entity.Document, error)
	Save(ctx context.Context, doc *entity.Document) error
}

// New returns the backend selected by storage.driver.
func New(conf config.Storage, log *slog.Logger) (Store, error) {
	switch conf.Driver {
	case "", "file":
		return NewJSONFile(conf.Path, log), nil
	case "mongo":
		return NewMongoClient(conf.Mongo, log), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", conf.Driver)
	}
}
