package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"donutshop/faults"
)

// Memory is a map-backed Store with the same semantics as the Postgres
// backend. Used by the test suites and for running without a database.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{colls: make(map[string]map[string][]byte)}
}

// coll lazily creates a collection; callers must hold the write lock. Read
// paths look collections up directly so they stay safe under RLock.
func (s *Memory) coll(name string) map[string][]byte {
	c, ok := s.colls[name]
	if !ok {
		c = make(map[string][]byte)
		s.colls[name] = c
	}
	return c
}

func (s *Memory) Get(ctx context.Context, collection, id string, out any) error {
	const op = "store.get"
	if err := ctx.Err(); err != nil {
		return classify(op, err)
	}
	s.mu.RLock()
	raw, ok := s.colls[collection][id]
	s.mu.RUnlock()
	if !ok {
		return faults.New(faults.NotFound, op, "no document with id "+id)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	return nil
}

func (s *Memory) Set(ctx context.Context, collection, id string, doc any) error {
	const op = "store.set"
	if err := ctx.Err(); err != nil {
		return classify(op, err)
	}
	raw, err := marshalWithID(doc, id)
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	s.mu.Lock()
	s.coll(collection)[id] = raw
	s.mu.Unlock()
	return nil
}

func (s *Memory) Add(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.New().String()
	if err := s.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Memory) Delete(ctx context.Context, collection, id string) error {
	const op = "store.delete"
	if err := ctx.Err(); err != nil {
		return classify(op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	if _, ok := c[id]; !ok {
		return faults.New(faults.NotFound, op, "no document with id "+id)
	}
	delete(c, id)
	return nil
}

func (s *Memory) Patch(ctx context.Context, collection, id, field string, value any) error {
	const op = "store.patch"
	if err := ctx.Err(); err != nil {
		return classify(op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	raw, ok := c[id]
	if !ok {
		return faults.New(faults.NotFound, op, "no document with id "+id)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	m[field] = value
	updated, err := json.Marshal(m)
	if err != nil {
		return faults.Wrap(faults.Transport, op, err)
	}
	c[id] = updated
	return nil
}

func (s *Memory) Query(ctx context.Context, collection, field string, value any) ([]json.RawMessage, error) {
	const op = "store.query"
	if err := ctx.Err(); err != nil {
		return nil, classify(op, err)
	}
	want := fieldText(value)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []json.RawMessage
	for _, raw := range s.colls[collection] {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, faults.Wrap(faults.Transport, op, err)
		}
		got, ok := m[field]
		if !ok {
			continue
		}
		if fieldText(got) == want {
			docs = append(docs, json.RawMessage(raw))
		}
	}
	return docs, nil
}

func (s *Memory) BatchDelete(ctx context.Context, collection string, ids []string) error {
	const op = "store.batchDelete"
	if err := ctx.Err(); err != nil {
		return classify(op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// One critical section, so the batch is observed as a unit. Absent ids
	// are skipped, matching the single-statement delete in Postgres.
	c := s.coll(collection)
	for _, id := range ids {
		delete(c, id)
	}
	return nil
}
