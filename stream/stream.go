// Package stream provides the state containers the managers publish
// through. The contract is "latest value plus change notification": a
// subscriber always sees the current value on subscribe and is woken for
// every later Set, but intermediate values may be coalesced.
package stream

import (
	"context"
	"sync"
)

type State[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]chan T
	next  int
}

func New[T any](initial T) *State[T] {
	return &State[T]{value: initial, subs: make(map[int]chan T)}
}

// Get returns the latest published value.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set publishes v and notifies all subscribers without blocking. A slow
// subscriber has its pending value replaced rather than queued.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Drop the stale pending value, then deliver the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Subscribe returns a channel that carries the current value immediately
// and each subsequent change. The subscription lives until ctx is
// cancelled; the channel is closed on teardown.
func (s *State[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	ch <- s.value
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}
