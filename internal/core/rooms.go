package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/domain"
)

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

type room struct {
	mu      sync.Mutex
	members map[ConnID]*Record
	// dead marks a room removed from the directory after its last member
	// left; a racing join must not resurrect it.
	dead bool
}

// Rooms maps room ids to member sets. The directory lock guards the room
// table; each room has its own lock, so join/leave on different rooms never
// block each other. Rooms are created implicitly on first join and
// garbage-collected when the last member leaves.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*room
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[domain.RoomID]*room)}
}

func (d *Rooms) getOrCreate(id domain.RoomID) *room {
	d.mu.RLock()
	r, ok := d.rooms[id]
	d.mu.RUnlock()
	if ok {
		return r
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok = d.rooms[id]; ok {
		return r
	}
	r = &room{members: make(map[ConnID]*Record)}
	d.rooms[id] = r
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room created")
	return r
}

// Join adds rec to the room and returns the members present before the add,
// excluding the joiner. Snapshot and add happen atomically under the room
// lock: two simultaneous joiners each get a prior list that does not
// include the other.
func (d *Rooms) Join(id domain.RoomID, rec *Record) []*Record {
	for {
		r := d.getOrCreate(id)
		r.mu.Lock()
		if r.dead {
			r.mu.Unlock()
			continue
		}
		prior := make([]*Record, 0, len(r.members))
		for _, m := range r.members {
			prior = append(prior, m)
		}
		r.members[rec.ID] = rec
		r.mu.Unlock()
		log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("conn", string(rec.ID)).Int("prior", len(prior)).Msg("member joined")
		return prior
	}
}

// Leave removes the membership and returns the remaining members. No-op if
// the connection is not a member; calling it twice has the effect of
// calling it once.
func (d *Rooms) Leave(id domain.RoomID, connID ConnID) (remaining []*Record, ok bool) {
	d.mu.RLock()
	r, exists := d.rooms[id]
	d.mu.RUnlock()
	if !exists {
		return nil, false
	}

	r.mu.Lock()
	if _, ok = r.members[connID]; !ok {
		r.mu.Unlock()
		return nil, false
	}
	delete(r.members, connID)
	remaining = make([]*Record, 0, len(r.members))
	for _, m := range r.members {
		remaining = append(remaining, m)
	}
	empty := len(r.members) == 0
	r.mu.Unlock()

	log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("conn", string(connID)).Int("remaining", len(remaining)).Msg("member left")

	if empty {
		d.collect(id, r)
	}
	return remaining, true
}

// collect removes the room if it is still empty. Lock order is directory
// then room, matching nothing that holds them in the opposite order.
func (d *Rooms) collect(id domain.RoomID, r *room) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) != 0 || d.rooms[id] != r {
		return
	}
	r.dead = true
	delete(d.rooms, id)
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room removed")
}

// Members returns a snapshot of the room's member set, safe to iterate
// without holding any lock. Empty for unknown rooms.
func (d *Rooms) Members(id domain.RoomID) []*Record {
	d.mu.RLock()
	r, exists := d.rooms[id]
	d.mu.RUnlock()
	if !exists {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Record, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	return out
}

func (d *Rooms) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, r := range d.rooms {
		r.mu.Lock()
		n := len(r.members)
		r.mu.Unlock()
		out = append(out, RoomInfo{ID: id, MemberCount: n})
	}
	return out
}
