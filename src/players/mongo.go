package players

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	defaultCollection = "players"
	defaultOpTimeout  = 10 * time.Second
)

// MongoOptions configures a MongoSource.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoSource reads players from a MongoDB collection.
type MongoSource struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

var _ Source = (*MongoSource)(nil)

// OpenMongo connects to MongoDB and verifies the connection.
func OpenMongo(ctx context.Context, opts MongoOptions) (*MongoSource, error) {
	if opts.URI == "" {
		return nil, errors.New("players: mongo uri is required")
	}
	if opts.Database == "" {
		return nil, errors.New("players: mongo database is required")
	}
	if opts.Collection == "" {
		opts.Collection = defaultCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultOpTimeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("players: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("players: ping: %w", err)
	}

	return &MongoSource{
		client:  client,
		coll:    client.Database(opts.Database).Collection(opts.Collection),
		timeout: opts.Timeout,
	}, nil
}

// Close disconnects the underlying client.
func (m *MongoSource) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// FullNames returns every non-empty full_name in the collection.
func (m *MongoSource) FullNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := bson.M{"full_name": bson.M{"$exists": true, "$ne": ""}}
	cur, err := m.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"full_name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			FullName string `bson:"full_name"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.FullName != "" {
			names = append(names, doc.FullName)
		}
	}
	return names, cur.Err()
}

// ByFullName loads the document with an exact full_name.
func (m *MongoSource) ByFullName(ctx context.Context, fullName string) (*Player, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	raw, err := m.coll.FindOne(ctx, bson.M{"full_name": fullName}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("player not found: %s", fullName)
		}
		return nil, err
	}

	var p Player
	if err := bson.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if oid, ok := raw.Lookup("_id").ObjectIDOK(); ok {
		p.ID = oid.Hex()
	}
	return &p, nil
}
