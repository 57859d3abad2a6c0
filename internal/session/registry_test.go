package session

import (
	"context"
	"sync"
	"testing"
)

type stubConn string

func (c stubConn) ID() string                                { return string(c) }
func (c stubConn) Send(context.Context, ServerMessage) error { return nil }

// symmetric checks both directions agree.
func symmetric(t *testing.T, r *Registry) {
	t.Helper()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for gameID, conns := range r.byGame {
		if len(conns) == 0 {
			t.Fatalf("empty set kept for game %d", gameID)
		}
		for id := range conns {
			if _, ok := r.byConn[id][gameID]; !ok {
				t.Fatalf("game %d lists %s but not the reverse", gameID, id)
			}
		}
	}
	for id, games := range r.byConn {
		if len(games) == 0 {
			t.Fatalf("empty set kept for conn %s", id)
		}
		for gameID := range games {
			if _, ok := r.byGame[gameID][id]; !ok {
				t.Fatalf("conn %s lists game %d but not the reverse", id, gameID)
			}
		}
	}
}

func TestRegistryAttachDetach(t *testing.T) {
	r := NewRegistry()
	a, b := stubConn("a"), stubConn("b")

	r.Attach(7, a)
	r.Attach(7, a)
	r.Attach(7, b)
	r.Attach(9, a)
	symmetric(t, r)

	if got := r.Games(a); len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Fatalf("expected [7 9], got %v", got)
	}
	if got := r.Conns(7); len(got) != 2 {
		t.Fatalf("expected 2 conns on game 7, got %d", len(got))
	}

	if !r.Detach(7, a) {
		t.Fatalf("expected detach to report attached")
	}
	if r.Detach(7, a) {
		t.Fatalf("second detach should report false")
	}
	symmetric(t, r)
	if r.Attached(7, a) || !r.Attached(9, a) {
		t.Fatalf("detach must only touch game 7")
	}

	left := r.DetachAll(a)
	if len(left) != 1 || left[0] != 9 {
		t.Fatalf("expected to leave [9], got %v", left)
	}
	if len(r.DetachAll(a)) != 0 {
		t.Fatalf("DetachAll must be idempotent")
	}
	symmetric(t, r)
	if got := r.Conns(9); len(got) != 0 {
		t.Fatalf("expected game 9 pruned, got %v", got)
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := stubConn(string(rune('a' + i)))
			for g := 0; g < 50; g++ {
				r.Attach(g%5, c)
				if g%3 == 0 {
					r.Detach(g%5, c)
				}
				r.Conns(g % 5)
			}
			if i%2 == 0 {
				r.DetachAll(c)
			}
		}(i)
	}
	wg.Wait()
	symmetric(t, r)
}

func TestGameLocksRelease(t *testing.T) {
	var l gameLocks
	unlock := l.lock(1)
	done := make(chan struct{})
	go func() {
		u := l.lock(1)
		u()
		close(done)
	}()
	unlock()
	<-done

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.locks) != 0 {
		t.Fatalf("expected lock entries dropped, got %d", len(l.locks))
	}
}
