package mapdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig locates map documents in MongoDB.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Name       string // value of the document's "name" field
}

// MongoLoader reads a named map document from a collection.
type MongoLoader struct {
	client *mongo.Client
	coll   *mongo.Collection
	name   string
}

// NewMongoLoader connects to MongoDB and verifies the connection.
func NewMongoLoader(ctx context.Context, cfg MongoConfig) (*MongoLoader, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: map name is required for the mongo source", ErrInvalidMap)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoLoaderFromCollection(client, client.Database(cfg.Database).Collection(cfg.Collection), cfg.Name), nil
}

// NewMongoLoaderFromCollection wraps an existing collection handle. client may
// be nil, in which case Close does nothing.
func NewMongoLoaderFromCollection(client *mongo.Client, coll *mongo.Collection, name string) *MongoLoader {
	return &MongoLoader{client: client, coll: coll, name: name}
}

// Load implements Loader.
func (l *MongoLoader) Load(ctx context.Context) (*Map, error) {
	var doc document
	err := l.coll.FindOne(ctx, bson.M{"name": l.name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %q in %s", ErrNotFound, l.name, l.coll.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("find map %q: %w", l.name, err)
	}
	m, err := doc.toMap()
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", l.name, err)
	}
	m.Name = l.name
	return m, nil
}

// Save upserts m under its name, for seeding a collection from a file.
func (l *MongoLoader) Save(ctx context.Context, m *Map) error {
	doc := bson.M{
		"name":   l.name,
		"width":  m.Width,
		"height": m.Height,
		"walls":  pairs(m.Walls),
		"tracks": pairs(m.Tracks),
		"rfids":  pairs(m.Markers),
	}
	_, err := l.coll.ReplaceOne(ctx, bson.M{"name": l.name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save map %q: %w", l.name, err)
	}
	return nil
}

// Close disconnects the client.
func (l *MongoLoader) Close(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	return l.client.Disconnect(ctx)
}
