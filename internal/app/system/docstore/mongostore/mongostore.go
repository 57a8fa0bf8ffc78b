// Package mongostore implements docstore.Store on MongoDB. Each logical
// collection maps to a Mongo collection and the document ID is stored as _id.
// Transactions require a replica set or sharded cluster.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/dalemusser/reelhub/internal/app/system/txn"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Store wraps a Mongo database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// New returns a Store over db. The client must be the one db was obtained
// from; it is used to start transaction sessions.
func New(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, db: db, log: logger}
}

type tx struct {
	docstore.Buffer
	db *mongo.Database
}

func (t *tx) Get(ctx context.Context, key docstore.Key, out any) (bool, error) {
	if err := t.CheckRead(key); err != nil {
		return false, err
	}
	return findOne(ctx, t.db, key, out)
}

func findOne(ctx context.Context, db *mongo.Database, key docstore.Key, out any) (bool, error) {
	err := db.Collection(key.Collection).FindOne(ctx, bson.M{"_id": key.ID}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongostore: get %s: %w", key, err)
	}
	return true, nil
}

// RunTransaction implements docstore.Store. fn runs inside the session
// context, so its reads see the transaction snapshot. Buffered writes are
// applied in order before the driver commits. A write conflict that
// outlives the driver's retries is reported as docstore.ErrConflict.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	err := txn.Run(ctx, s.client, s.log, func(sc context.Context) error {
		// WithTransaction may re-run this closure; each run gets a fresh buffer.
		t := &tx{db: s.db}
		if err := fn(sc, t); err != nil {
			return err
		}
		for _, w := range t.Writes() {
			if err := s.apply(sc, w); err != nil {
				return err
			}
		}
		return nil
	})
	return asConflict(err)
}

func asConflict(err error) error {
	if err == nil || errors.Is(err, docstore.ErrAlreadyExists) || !txn.IsTransient(err) {
		return err
	}
	return fmt.Errorf("%w: %w", docstore.ErrConflict, err)
}

func (s *Store) apply(ctx context.Context, w docstore.Write) error {
	doc, err := withID(w.Key.ID, w.Doc)
	if err != nil {
		return fmt.Errorf("mongostore: encode %s: %w", w.Key, err)
	}
	coll := s.db.Collection(w.Key.Collection)

	switch w.Op {
	case docstore.OpCreate:
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			if wafflemongo.IsDup(err) {
				return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, w.Key)
			}
			return fmt.Errorf("mongostore: create %s: %w", w.Key, err)
		}
	case docstore.OpSet:
		opts := options.Replace().SetUpsert(true)
		if _, err := coll.ReplaceOne(ctx, bson.M{"_id": w.Key.ID}, doc, opts); err != nil {
			return fmt.Errorf("mongostore: set %s: %w", w.Key, err)
		}
	default:
		return fmt.Errorf("mongostore: unknown op %d for %s", w.Op, w.Key)
	}
	return nil
}

// withID round-trips doc through BSON so _id can be set without requiring
// callers' structs to carry an ID field.
func withID(id string, doc any) (bson.D, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	out := make(bson.D, 0, len(d)+1)
	out = append(out, bson.E{Key: "_id", Value: id})
	for _, e := range d {
		if e.Key != "_id" {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, key docstore.Key, out any) (bool, error) {
	return findOne(ctx, s.db, key, out)
}

type document struct {
	id  string
	raw bson.Raw
}

func (d document) ID() string { return d.id }

func (d document) Decode(out any) error { return bson.Unmarshal(d.raw, out) }

// Find implements docstore.Store.
func (s *Store) Find(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{field: value}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: find %s.%s: %w", collection, field, err)
	}
	defer cur.Close(ctx)

	var out []docstore.Document
	for cur.Next(ctx) {
		raw := make(bson.Raw, len(cur.Current))
		copy(raw, cur.Current)
		id, ok := raw.Lookup("_id").StringValueOK()
		if !ok {
			s.log.Warn("skipping document with non-string _id", zap.String("collection", collection))
			continue
		}
		out = append(out, document{id: id, raw: raw})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongostore: find %s.%s: %w", collection, field, err)
	}
	return out, nil
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
