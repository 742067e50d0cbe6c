// Package mongostore adapts a MongoDB collection to docskema.Store. Filters
// and updates translate one to one: $set, $push with $each, and positional
// paths resolved by an element match in the filter.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	docskema "github.com/reoring/docskema"
)

// Store writes one collection.
type Store struct {
	coll    *mongo.Collection
	idField string
	log     logrus.FieldLogger
}

var _ docskema.Store = (*Store)(nil)

// New wraps an open collection.
func New(coll *mongo.Collection, idField string, log logrus.FieldLogger) *Store {
	if idField == "" {
		idField = docskema.DefaultIDField
	}
	if log == nil {
		log = logrus.New()
	}
	return &Store{coll: coll, idField: idField, log: log}
}

// Connect dials uri and returns the store for database.collection together
// with a function that disconnects the client.
func Connect(ctx context.Context, uri, database, collection, idField string, log logrus.FieldLogger) (*Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	s := New(client.Database(database).Collection(collection), idField, log)
	s.log.WithFields(logrus.Fields{"database": database, "collection": collection}).Info("mongo store connected")
	return s, client.Disconnect, nil
}

// FilterDoc translates a Filter into a query document.
func FilterDoc(f docskema.Filter) bson.M {
	m := bson.M{f.Field: f.ID}
	if e := f.Elem; e != nil {
		if e.Absent {
			m[e.Key()] = bson.M{"$ne": e.ID}
		} else {
			m[e.Key()] = e.ID
		}
	}
	return m
}

// UpdateDoc translates an Update into an update document.
func UpdateDoc(u docskema.Update) bson.M {
	out := bson.M{}
	if len(u.Set) > 0 {
		set := bson.M{}
		for k, v := range u.Set {
			set[k] = v
		}
		out["$set"] = set
	}
	if len(u.Push) > 0 {
		push := bson.M{}
		for k, vs := range u.Push {
			push[k] = bson.M{"$each": vs}
		}
		out["$push"] = push
	}
	return out
}

func (s *Store) InsertOne(ctx context.Context, doc docskema.Document) error {
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *Store) InsertMany(ctx context.Context, docs []docskema.Document) error {
	vs := make([]any, len(docs))
	for i, d := range docs {
		vs[i] = d
	}
	_, err := s.coll.InsertMany(ctx, vs)
	return err
}

func (s *Store) UpdateOne(ctx context.Context, f docskema.Filter, u docskema.Update) (docskema.UpdateResult, error) {
	if u.IsZero() {
		n, err := s.coll.CountDocuments(ctx, FilterDoc(f), options.Count().SetLimit(1))
		return docskema.UpdateResult{Matched: n}, err
	}
	res, err := s.coll.UpdateOne(ctx, FilterDoc(f), UpdateDoc(u))
	if err != nil {
		return docskema.UpdateResult{}, err
	}
	return docskema.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// WriteModels translates models for an ordered bulk write. Empty updates are
// dropped.
func WriteModels(models []docskema.WriteModel) []mongo.WriteModel {
	out := make([]mongo.WriteModel, 0, len(models))
	for _, m := range models {
		if m.Insert != nil {
			out = append(out, mongo.NewInsertOneModel().SetDocument(m.Insert))
			continue
		}
		if m.Update.IsZero() {
			continue
		}
		out = append(out, mongo.NewUpdateOneModel().SetFilter(FilterDoc(m.Filter)).SetUpdate(UpdateDoc(m.Update)))
	}
	return out
}

func (s *Store) BulkWrite(ctx context.Context, models []docskema.WriteModel) (docskema.UpdateResult, error) {
	wm := WriteModels(models)
	if len(wm) == 0 {
		return docskema.UpdateResult{}, nil
	}
	res, err := s.coll.BulkWrite(ctx, wm, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return docskema.UpdateResult{}, err
	}
	return docskema.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *Store) FindOne(ctx context.Context, f docskema.Filter) (docskema.Document, error) {
	var m bson.M
	err := s.coll.FindOne(ctx, FilterDoc(f)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docskema.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Plain(m).(map[string]any), nil
}

func (s *Store) Exists(ctx context.Context, q docskema.Query) (bool, error) {
	filter := bson.M{q.Field: q.Value}
	if !q.Exclude.IsZero() {
		filter[q.IDField] = bson.M{"$ne": q.Exclude}
	}
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Plain converts decoded BSON into plain maps and slices; dates become
// time.Time.
func Plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}
