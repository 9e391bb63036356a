package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donutshop/faults"
)

type testDoc struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	Active bool   `json:"active"`
}

func TestMemoryAddAssignsIDAndStoresIt(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	id, err := s.Add(ctx, Products, testDoc{Name: "glazed", Owner: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got testDoc
	require.NoError(t, s.Get(ctx, Products, id, &got))
	assert.Equal(t, id, got.ID, "stored document carries its assigned id")
	assert.Equal(t, "glazed", got.Name)
}

func TestMemoryGetMissingIsNotFound(t *testing.T) {
	s := NewMemory()
	var got testDoc
	err := s.Get(context.Background(), Products, "nope", &got)
	require.Error(t, err)
	assert.True(t, faults.IsNotFound(err))
}

func TestMemorySetReplaces(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, Products, "p1", testDoc{Name: "old"}))
	require.NoError(t, s.Set(ctx, Products, "p1", testDoc{Name: "new"}))

	var got testDoc
	require.NoError(t, s.Get(ctx, Products, "p1", &got))
	assert.Equal(t, "new", got.Name)
}

func TestMemoryQueryByEquality(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Add(ctx, Products, testDoc{Name: "a", Owner: "u1", Active: true})
	require.NoError(t, err)
	_, err = s.Add(ctx, Products, testDoc{Name: "b", Owner: "u1", Active: false})
	require.NoError(t, err)
	_, err = s.Add(ctx, Products, testDoc{Name: "c", Owner: "u2", Active: true})
	require.NoError(t, err)

	byOwner, err := s.Query(ctx, Products, "owner", "u1")
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)

	active, err := s.Query(ctx, Products, "active", true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	none, err := s.Query(ctx, Products, "owner", "u3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryPatchTouchesOneField(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, Orders, "o1", map[string]any{"status": "PENDING", "totalAmount": 9.5}))
	require.NoError(t, s.Patch(ctx, Orders, "o1", "status", "CONFIRMED"))

	var got map[string]any
	require.NoError(t, s.Get(ctx, Orders, "o1", &got))
	assert.Equal(t, "CONFIRMED", got["status"])
	assert.Equal(t, 9.5, got["totalAmount"])

	err := s.Patch(ctx, Orders, "missing", "status", "CONFIRMED")
	assert.True(t, faults.IsNotFound(err))
}

func TestMemoryBatchDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		id, err := s.Add(ctx, CartItems, testDoc{Name: name, Owner: "u1"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, s.BatchDelete(ctx, CartItems, ids[:2]))

	left, err := s.Query(ctx, CartItems, "owner", "u1")
	require.NoError(t, err)
	require.Len(t, left, 1)

	var doc testDoc
	require.NoError(t, json.Unmarshal(left[0], &doc))
	assert.Equal(t, "c", doc.Name)

	// Empty batch is a no-op.
	assert.NoError(t, s.BatchDelete(ctx, CartItems, nil))
}

func TestMemoryDeleteMissingIsNotFound(t *testing.T) {
	s := NewMemory()
	err := s.Delete(context.Background(), CartItems, "missing")
	assert.True(t, faults.IsNotFound(err))
}

func TestMemoryConcurrentReadsOnFreshCollections(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	// Readers and writers racing on collections that don't exist yet;
	// run with -race to catch map corruption.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			coll := fmt.Sprintf("coll_%d", i%4)
			var out testDoc
			_ = s.Get(ctx, coll, "missing", &out)
			_, err := s.Query(ctx, coll, "owner", "u1")
			assert.NoError(t, err)
			_, err = s.Add(ctx, coll, testDoc{Name: "x", Owner: "u1"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestMemoryExpiredContextIsTimeout(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	var out testDoc
	assert.True(t, faults.IsTimeout(s.Get(ctx, Products, "p1", &out)))

	_, err := s.Query(ctx, Products, "owner", "u1")
	assert.True(t, faults.IsTimeout(err))

	assert.True(t, faults.IsTimeout(s.Set(ctx, Products, "p1", testDoc{Name: "x"})))
}
