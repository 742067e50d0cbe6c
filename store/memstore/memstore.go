// Package memstore is an in-memory docskema.Store. Documents are kept as
// JSON, so they read back the way a JSON store would return them: identities
// and times as strings.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/internal/docpatch"
)

// ErrDuplicateID is returned when an inserted document reuses an identity.
var ErrDuplicateID = errors.New("memstore: duplicate identity")

// Store holds one collection in memory. It is safe for concurrent use; each
// call is atomic on its own.
type Store struct {
	mu      sync.RWMutex
	idField string
	order   []string
	docs    map[string][]byte
	log     logrus.FieldLogger
}

var _ docskema.Store = (*Store)(nil)

// New returns an empty store whose documents are keyed by idField.
func New(idField string, log logrus.FieldLogger) *Store {
	if idField == "" {
		idField = docskema.DefaultIDField
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Store{idField: idField, docs: map[string][]byte{}, log: log}
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store) InsertOne(ctx context.Context, doc docskema.Document) error {
	return s.InsertMany(ctx, []docskema.Document{doc})
}

// InsertMany inserts all documents or none.
func (s *Store) InsertMany(ctx context.Context, docs []docskema.Document) error {
	keys := make([]string, len(docs))
	raws := make([][]byte, len(docs))
	seen := map[string]bool{}
	for i, d := range docs {
		k, err := docpatch.Key(d, s.idField)
		if err != nil {
			return err
		}
		if seen[k] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, k)
		}
		seen[k] = true
		raw, err := docpatch.Encode(d)
		if err != nil {
			return fmt.Errorf("memstore: encode: %w", err)
		}
		keys[i], raws[i] = k, raw
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if _, ok := s.docs[k]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, k)
		}
	}
	for i, k := range keys {
		s.docs[k] = raws[i]
		s.order = append(s.order, k)
	}
	s.log.WithField("docs", len(keys)).Debug("memstore insert")
	return nil
}

func (s *Store) UpdateOne(ctx context.Context, f docskema.Filter, u docskema.Update) (docskema.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(f, u)
}

func (s *Store) update(f docskema.Filter, u docskema.Update) (docskema.UpdateResult, error) {
	k := f.ID.Hex()
	raw, ok := s.docs[k]
	if !ok {
		return docskema.UpdateResult{}, nil
	}
	out, res, err := docpatch.Update(raw, f, u)
	if err != nil {
		return res, err
	}
	s.docs[k] = out
	return res, nil
}

// BulkWrite applies models in order under one lock and stops at the first
// failure; earlier models stay applied.
func (s *Store) BulkWrite(ctx context.Context, models []docskema.WriteModel) (docskema.UpdateResult, error) {
	var total docskema.UpdateResult
	for i, m := range models {
		if m.Insert != nil {
			if err := s.InsertOne(ctx, m.Insert); err != nil {
				return total, fmt.Errorf("memstore: bulk model %d: %w", i, err)
			}
			continue
		}
		s.mu.Lock()
		res, err := s.update(m.Filter, m.Update)
		s.mu.Unlock()
		if err != nil {
			return total, fmt.Errorf("memstore: bulk model %d: %w", i, err)
		}
		total.Matched += res.Matched
		total.Modified += res.Modified
	}
	return total, nil
}

func (s *Store) FindOne(ctx context.Context, f docskema.Filter) (docskema.Document, error) {
	s.mu.RLock()
	raw, ok := s.docs[f.ID.Hex()]
	s.mu.RUnlock()
	if !ok {
		return nil, docskema.ErrNotFound
	}
	doc, err := docpatch.Decode(raw)
	if err != nil {
		return nil, err
	}
	if !docpatch.Matches(doc, f) {
		return nil, docskema.ErrNotFound
	}
	return doc, nil
}

func (s *Store) Exists(ctx context.Context, q docskema.Query) (bool, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return false, err
	}
	return docpatch.Exists(docs, q), nil
}

// All returns every document in insertion order.
func (s *Store) All(ctx context.Context) ([]docskema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]docskema.Document, 0, len(s.order))
	for _, k := range s.order {
		d, err := docpatch.Decode(s.docs[k])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
