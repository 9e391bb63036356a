package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"donutshop/faults"
)

// DefaultTimeout bounds every store round trip. The backing store offers no
// deadline of its own, so a hung connection would otherwise stall the
// calling screen forever.
const DefaultTimeout = 10 * time.Second

var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Postgres keeps each collection in a table of (id TEXT, doc JSONB) rows.
type Postgres struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, timeout: DefaultTimeout}
}

func (s *Postgres) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Postgres) Get(ctx context.Context, collection, id string, out any) error {
	const op = "store.get"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query, args, err := qb.Select("doc").From(collection).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}

	var raw []byte
	if err := s.db.GetContext(ctx, &raw, query, args...); err != nil {
		return classify(op, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	return nil
}

func (s *Postgres) Set(ctx context.Context, collection, id string, doc any) error {
	const op = "store.set"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	raw, err := marshalWithID(doc, id)
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}

	query, args, err := qb.Insert(collection).
		Columns("id", "doc").
		Values(id, raw).
		Suffix("ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc").
		ToSql()
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify(op, err)
	}
	return nil
}

func (s *Postgres) Add(ctx context.Context, collection string, doc any) (string, error) {
	const op = "store.add"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	id := uuid.New().String()
	raw, err := marshalWithID(doc, id)
	if err != nil {
		return "", faults.Wrap(faults.Transport, op, err)
	}

	query, args, err := qb.Insert(collection).Columns("id", "doc").Values(id, raw).ToSql()
	if err != nil {
		return "", faults.Wrap(faults.Transport, op, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", classify(op, err)
	}
	return id, nil
}

func (s *Postgres) Delete(ctx context.Context, collection, id string) error {
	const op = "store.delete"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query, args, err := qb.Delete(collection).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return faults.New(faults.NotFound, op, "no document with id "+id)
	}
	return nil
}

func (s *Postgres) Patch(ctx context.Context, collection, id, field string, value any) error {
	const op = "store.patch"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	encoded, err := json.Marshal(value)
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}

	query, args, err := qb.Update(collection).
		Set("doc", squirrel.Expr("jsonb_set(doc, ARRAY[?], ?::jsonb)", field, encoded)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return faults.New(faults.NotFound, op, "no document with id "+id)
	}
	return nil
}

func (s *Postgres) Query(ctx context.Context, collection, field string, value any) ([]json.RawMessage, error) {
	const op = "store.query"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query, args, err := qb.Select("doc").From(collection).
		Where(squirrel.Expr("doc->>? = ?", field, fieldText(value))).
		ToSql()
	if err != nil {
		return nil, faults.Wrap(faults.Transport, op, err)
	}

	var rows [][]byte
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(op, err)
	}
	docs := make([]json.RawMessage, 0, len(rows))
	for _, raw := range rows {
		docs = append(docs, json.RawMessage(raw))
	}
	return docs, nil
}

func (s *Postgres) BatchDelete(ctx context.Context, collection string, ids []string) error {
	const op = "store.batchDelete"
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	// Single statement in a transaction: the whole batch lands or none of it.
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer tx.Rollback()

	query, args, err := qb.Delete(collection).
		Where(squirrel.Expr("id = ANY(?)", pq.Array(ids))).
		ToSql()
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return faults.Wrap(faults.Timeout, op, err)
	case errors.Is(err, sql.ErrNoRows):
		return faults.Wrap(faults.NotFound, op, err)
	default:
		return faults.Wrap(faults.Transport, op, err)
	}
}
