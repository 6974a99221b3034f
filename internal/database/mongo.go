package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"danceschool/internal/config"
	"danceschool/internal/lib/sl"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection         = "users"
	groupsCollection        = "groups"
	conversationsCollection = "conversations"
	readMarkersCollection   = "read-markers"

	connectTimeout = 10 * time.Second
)

type MongoDB struct {
	client   *mongo.Client
	database string
	log      *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	return &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
		log:      logger.With(sl.Module("mongodb")),
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

// EnsureIndexes creates the indexes the chat relies on, including the unique
// conversation key that makes find-or-create safe under concurrent requests.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		conversationsCollection: {
			{Keys: bson.D{{"key", 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{"participants", 1}}},
			{Keys: bson.D{{"kind", 1}, {"last_activity", -1}}},
			{Keys: bson.D{{"group", 1}}},
		},
		readMarkersCollection: {
			{Keys: bson.D{{"conversation_id", 1}, {"user_id", 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{"user_id", 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{"username", 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{"role", 1}}},
		},
		groupsCollection: {
			{Keys: bson.D{{"teachers", 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := m.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb create %s indexes: %w", name, err)
		}
	}

	m.log.Debug("indexes ensured")
	return nil
}
