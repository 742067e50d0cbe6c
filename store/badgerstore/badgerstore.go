// Package badgerstore is a docskema.Store persisted in an embedded BadgerDB.
// Each document is one JSON value under the key "<collection>/<hex id>".
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/internal/docpatch"
)

// ErrDuplicateID is returned when an inserted document reuses an identity.
var ErrDuplicateID = errors.New("badgerstore: duplicate identity")

// Config selects where and how the store is opened.
type Config struct {
	Path       string // directory; empty opens an in-memory database
	Collection string
	IDField    string
	Logger     logrus.FieldLogger
}

// Store is one collection inside a Badger database.
type Store struct {
	db      *badger.DB
	prefix  []byte
	idField string
	log     logrus.FieldLogger
}

var _ docskema.Store = (*Store)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("badgerstore: collection is required")
	}
	if cfg.IDField == "" {
		cfg.IDField = docskema.DefaultIDField
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open %q: %w", cfg.Path, err)
	}
	cfg.Logger.WithFields(logrus.Fields{"path": cfg.Path, "collection": cfg.Collection}).Info("badger store opened")
	return &Store{
		db:      db,
		prefix:  []byte(cfg.Collection + "/"),
		idField: cfg.IDField,
		log:     cfg.Logger,
	}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.log.Info("badger store closed")
	return s.db.Close()
}

func (s *Store) key(hex string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(hex))
	return append(append(k, s.prefix...), hex...)
}

func (s *Store) InsertOne(ctx context.Context, doc docskema.Document) error {
	return s.InsertMany(ctx, []docskema.Document{doc})
}

// InsertMany inserts all documents in one transaction.
func (s *Store) InsertMany(ctx context.Context, docs []docskema.Document) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return s.insert(txn, docs)
	})
}

func (s *Store) insert(txn *badger.Txn, docs []docskema.Document) error {
	for _, d := range docs {
		hex, err := docpatch.Key(d, s.idField)
		if err != nil {
			return err
		}
		k := s.key(hex)
		_, err = txn.Get(k)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrDuplicateID, hex)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		raw, err := docpatch.Encode(d)
		if err != nil {
			return fmt.Errorf("badgerstore: encode: %w", err)
		}
		if err := txn.Set(k, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateOne(ctx context.Context, f docskema.Filter, u docskema.Update) (docskema.UpdateResult, error) {
	var res docskema.UpdateResult
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		res, err = s.update(txn, f, u)
		return err
	})
	return res, err
}

func (s *Store) update(txn *badger.Txn, f docskema.Filter, u docskema.Update) (docskema.UpdateResult, error) {
	k := s.key(f.ID.Hex())
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return docskema.UpdateResult{}, nil
	}
	if err != nil {
		return docskema.UpdateResult{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return docskema.UpdateResult{}, err
	}
	out, res, err := docpatch.Update(raw, f, u)
	if err != nil || res.Modified == 0 {
		return res, err
	}
	return res, txn.Set(k, out)
}

// BulkWrite applies every model inside one Badger transaction, so unlike a
// remote store the batch is all-or-nothing here.
func (s *Store) BulkWrite(ctx context.Context, models []docskema.WriteModel) (docskema.UpdateResult, error) {
	var total docskema.UpdateResult
	err := s.db.Update(func(txn *badger.Txn) error {
		for i, m := range models {
			if m.Insert != nil {
				if err := s.insert(txn, []docskema.Document{m.Insert}); err != nil {
					return fmt.Errorf("badgerstore: bulk model %d: %w", i, err)
				}
				continue
			}
			res, err := s.update(txn, m.Filter, m.Update)
			if err != nil {
				return fmt.Errorf("badgerstore: bulk model %d: %w", i, err)
			}
			total.Matched += res.Matched
			total.Modified += res.Modified
		}
		return nil
	})
	if err != nil {
		return docskema.UpdateResult{}, err
	}
	return total, nil
}

func (s *Store) FindOne(ctx context.Context, f docskema.Filter) (docskema.Document, error) {
	var doc docskema.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(f.ID.Hex()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return docskema.ErrNotFound
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc, err = docpatch.Decode(raw)
		return err
	})
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

// All returns every document of the collection in key order.
func (s *Store) All(ctx context.Context) ([]docskema.Document, error) {
	var out []docskema.Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			d, err := docpatch.Decode(raw)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}
