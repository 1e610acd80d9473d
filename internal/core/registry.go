package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/domain"
)

// Record is one live connection and the identity attached to it.
// ID, User and Conn are immutable for the record's lifetime; room and
// state are guarded by the owning Registry.
type Record struct {
	ID   ConnID
	User domain.User
	Conn Conn

	room  domain.RoomID
	state State
}

// Registry tracks live connections. Pure in-memory bookkeeping: every
// operation completes without blocking on I/O.
type Registry struct {
	mu      sync.RWMutex
	records map[ConnID]*Record
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[ConnID]*Record)}
}

// Register allocates a fresh connection record. It always succeeds; a user
// may hold several simultaneous connections (multiple tabs).
func (r *Registry) Register(user domain.User, conn Conn) *Record {
	rec := &Record{
		ID:    ConnID(uuid.NewString()),
		User:  user,
		Conn:  conn,
		state: StateOpen,
	}
	r.mu.Lock()
	r.records[rec.ID] = rec
	r.mu.Unlock()
	log.Info().Str("module", "core.registry").Str("conn", string(rec.ID)).Str("user", string(user.ID)).Str("role", string(user.Role)).Msg("registered connection")
	return rec
}

func (r *Registry) Lookup(id ConnID) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// Unregister removes the record. Idempotent: unregistering twice is a no-op.
func (r *Registry) Unregister(id ConnID) {
	r.mu.Lock()
	rec, ok := r.records[id]
	if ok {
		rec.state = StateClosed
		delete(r.records, id)
	}
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "core.registry").Str("conn", string(id)).Msg("unregistered connection")
	}
}

// SetRoom records the connection's room association. A connection holds at
// most one room at a time; the caller is responsible for leaving any
// previous room first.
func (r *Registry) SetRoom(id ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return false
	}
	rec.room = room
	rec.state = StateJoined
	return true
}

// ClearRoom drops the room association, returning the connection to the
// room-less open state without destroying it.
func (r *Registry) ClearRoom(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		rec.room = ""
		rec.state = StateOpen
	}
}

func (r *Registry) RoomOf(id ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok || rec.room == "" {
		return "", false
	}
	return rec.room, true
}

func (r *Registry) StateOf(id ConnID) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return StateClosed
	}
	return rec.state
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
