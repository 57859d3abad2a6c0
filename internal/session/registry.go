package session

import (
	"sort"
	"sync"
)

// Registry maps game IDs to attached connections and back. Both directions
// are updated under one lock, so after any call a connection appears under a
// game exactly when that game appears under the connection. Empty sets are
// pruned.
type Registry struct {
	mu     sync.RWMutex
	byGame map[int]map[string]Conn
	byConn map[string]map[int]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byGame: make(map[int]map[string]Conn),
		byConn: make(map[string]map[int]struct{}),
	}
}

// Attach registers c against gameID. Attaching twice is a no-op.
func (r *Registry) Attach(gameID int, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.byGame[gameID]
	if !ok {
		conns = make(map[string]Conn)
		r.byGame[gameID] = conns
	}
	conns[c.ID()] = c

	games, ok := r.byConn[c.ID()]
	if !ok {
		games = make(map[int]struct{})
		r.byConn[c.ID()] = games
	}
	games[gameID] = struct{}{}
}

// Detach removes c from gameID and reports whether it was attached.
func (r *Registry) Detach(gameID int, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detachLocked(gameID, c.ID())
}

// DetachAll removes c from every game and returns the game IDs it left.
func (r *Registry) DetachAll(c Conn) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	games := sortedIDs(r.byConn[c.ID()])
	for _, id := range games {
		r.detachLocked(id, c.ID())
	}
	return games
}

func (r *Registry) detachLocked(gameID int, connID string) bool {
	conns, ok := r.byGame[gameID]
	if !ok {
		return false
	}
	if _, ok := conns[connID]; !ok {
		return false
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.byGame, gameID)
	}

	games := r.byConn[connID]
	delete(games, gameID)
	if len(games) == 0 {
		delete(r.byConn, connID)
	}
	return true
}

func (r *Registry) Attached(gameID int, c Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byGame[gameID][c.ID()]
	return ok
}

// Conns returns a snapshot of the connections attached to gameID, ordered by ID.
func (r *Registry) Conns(gameID int) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byGame[gameID]
	out := make([]Conn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Games returns the game IDs c is attached to, ascending.
func (r *Registry) Games(c Conn) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedIDs(r.byConn[c.ID()])
}

func sortedIDs(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
