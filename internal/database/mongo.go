package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/config"
	"github.com/iyann1255/daftaren/lib/sl"
)

const collectionDocuments = "documents"

// MongoDB stores the whole document as one record in the documents collection.
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
	documentId    string
	log           *slog.Logger
}

// mongoDocument wraps the entity document with its fixed id.
type mongoDocument struct {
	Id              string `bson:"_id"`
	entity.Document `bson:",inline"`
}

func NewMongoClient(conf config.Mongo, log *slog.Logger) *MongoDB {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Host, conf.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.User,
			Password:   conf.Password,
			AuthSource: conf.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Database,
		documentId:    conf.Document,
		log:           log.With(sl.Module("database.mongo")),
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

// Load returns the stored document, or an empty one when it does not exist
// or cannot be decoded. Connection errors are returned.
func (m *MongoDB) Load(ctx context.Context) (*entity.Document, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionDocuments)
	filter := bson.D{{Key: "_id", Value: m.documentId}}
	result := collection.FindOne(ctx, filter)
	if err = result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.NewDocument(), nil
		}
		return nil, fmt.Errorf("mongodb find: %w", err)
	}

	var stored mongoDocument
	if err = result.Decode(&stored); err != nil {
		m.log.Warn("corrupt document, starting empty", sl.Err(err))
		return entity.NewDocument(), nil
	}
	return stored.Document.Normalize(), nil
}

func (m *MongoDB) Save(ctx context.Context, doc *entity.Document) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionDocuments)
	filter := bson.D{{Key: "_id", Value: m.documentId}}
	replacement := mongoDocument{Id: m.documentId, Document: *doc}
	opts := options.Replace().SetUpsert(true)
	if _, err = collection.ReplaceOne(ctx, filter, replacement, opts); err != nil {
		return fmt.Errorf("mongodb replace: %w", err)
	}
	return nil
}
