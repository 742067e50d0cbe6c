package docskema

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/reoring/docskema/i18n"
)

// Saver is the caller-facing save operation: walk, filter, plan, check
// uniqueness and execute against a Store.
//
// Operations of one save are issued sequentially in plan order and a failure
// stops the batch. Nothing spans the batch: operations issued before a failure
// stay applied, and *StoreError.Committed tells how many.
type Saver struct {
	schema *Node
	store  Store
	log    logrus.FieldLogger
}

// Result describes a completed save.
type Result struct {
	ID      ID
	Created bool
	Ops     []Operation
	Doc     Document // stored representation read back after the write
}

// NewSaver binds a root object schema to a store. A nil logger logs warnings
// to stderr.
func NewSaver(schema *Node, store Store, log logrus.FieldLogger) *Saver {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Saver{schema: schema, store: store, log: log}
}

func (s *Saver) idField() string {
	if s.schema.IDField != "" {
		return s.schema.IDField
	}
	return DefaultIDField
}

// Prepare validates inst and plans the write without touching the store.
// A zero id creates; otherwise the document addressed by id is updated.
func (s *Saver) Prepare(ctx context.Context, inst map[string]any, id ID, opt SaveOpt) (*Payload, []Operation, error) {
	p, err := Validate(ctx, s.schema, inst, id, opt)
	if err != nil {
		return nil, nil, err
	}
	if opt.Partial && !id.IsZero() {
		p = FilterPartial(p, inst)
	}
	ops, err := Plan(p)
	if err != nil {
		return nil, nil, err
	}
	return p, ops, nil
}

// Save writes inst and returns the stored representation. In partial mode
// the representation omits null fields the caller did not send.
func (s *Saver) Save(ctx context.Context, inst map[string]any, id ID, opt SaveOpt) (*Result, error) {
	if opt.Lang != "" {
		ctx = i18n.WithLanguage(ctx, opt.Lang)
	}
	p, ops, err := s.Prepare(ctx, inst, id, opt)
	if err != nil {
		return nil, err
	}
	created := p.Intent.Mode == ModeCreate
	uc := UniqueChecker{Store: s.store, IDField: s.idField()}
	if err := uc.CheckPayload(ctx, p, id); err != nil {
		return nil, err
	}
	if err := s.execute(ctx, ops); err != nil {
		return nil, err
	}
	docID := p.Intent.ID
	doc, err := s.store.FindOne(ctx, Filter{Field: s.idField(), ID: docID})
	if err != nil {
		return nil, &StoreError{Op: "find_one", Committed: len(ops), Err: err}
	}
	if opt.Partial && !created {
		for k, v := range doc {
			if _, sent := inst[k]; v == nil && !sent {
				delete(doc, k)
			}
		}
	}
	s.log.WithFields(logrus.Fields{
		"id":   docID.Hex(),
		"mode": p.Intent.Mode.String(),
		"ops":  len(ops),
	}).Info("document saved")
	return &Result{ID: docID, Created: created, Ops: ops, Doc: doc}, nil
}

// SaveMany creates several documents with one InsertMany call. Every
// instance is validated and checked for uniqueness before anything is
// written. Unique values must also differ between the instances of the batch.
func (s *Saver) SaveMany(ctx context.Context, insts []map[string]any, opt SaveOpt) ([]ID, error) {
	if opt.Lang != "" {
		ctx = i18n.WithLanguage(ctx, opt.Lang)
	}
	uc := UniqueChecker{Store: s.store, IDField: s.idField()}
	type uniqueKey struct {
		field string
		value any
	}
	seen := map[uniqueKey]bool{}
	docs := make([]Document, 0, len(insts))
	ids := make([]ID, 0, len(insts))
	for i, inst := range insts {
		at := Path{}.Index(i).Pointer()
		p, err := Validate(ctx, s.schema, inst, NilID, opt)
		if err != nil {
			var iss Issues
			if errors.As(err, &iss) {
				return nil, rebaseIssues(at, iss)
			}
			return nil, err
		}
		for _, c := range p.UniqueChecks() {
			k := uniqueKey{c.Field, c.Value}
			if seen[k] {
				msg := c.Message
				if msg == "" {
					msg = i18n.T(ctx, CodeConflict, nil)
				}
				return nil, &ConflictError{Path: joinPointer(at, c.Pointer), Field: c.Field, Value: c.Value, Message: msg}
			}
			seen[k] = true
		}
		if err := uc.CheckPayload(ctx, p, NilID); err != nil {
			var ce *ConflictError
			if errors.As(err, &ce) {
				ce.Path = joinPointer(at, ce.Path)
			}
			return nil, err
		}
		docs = append(docs, p.Document())
		ids = append(ids, p.Intent.ID)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if err := s.store.InsertMany(ctx, docs); err != nil {
		s.log.WithError(err).WithField("docs", len(docs)).Warn("insert many failed")
		return nil, &StoreError{Op: "insert_many", Err: err}
	}
	s.log.WithField("docs", len(docs)).Info("documents saved")
	return ids, nil
}

func (s *Saver) execute(ctx context.Context, ops []Operation) error {
	for i, op := range ops {
		s.log.WithFields(logrus.Fields{
			"kind":   op.Kind.String(),
			"path":   op.Path,
			"filter": op.Filter.ID.Hex(),
		}).Debug("store operation")
		if err := s.apply(ctx, op); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"kind":      op.Kind.String(),
				"committed": i,
			}).Warn("store operation failed; earlier operations stay applied")
			return &StoreError{Op: op.Kind.String(), Committed: i, Err: err}
		}
	}
	return nil
}

func (s *Saver) apply(ctx context.Context, op Operation) error {
	switch op.Kind {
	case OpInsertOne:
		return s.store.InsertOne(ctx, op.Doc)
	case OpUpdateSet, OpPushArray:
		m := op.WriteModels()[0]
		res, err := s.store.UpdateOne(ctx, m.Filter, m.Update)
		if err != nil {
			return err
		}
		if res.Matched == 0 {
			return ErrNotFound
		}
		return nil
	case OpBulkReconcileArray:
		_, err := s.store.BulkWrite(ctx, op.WriteModels())
		return err
	}
	return &UnsupportedShapeError{Path: "/", Reason: "unknown operation " + op.Kind.String()}
}
