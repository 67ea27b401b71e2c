// Package registry is the single source of truth for room membership. It is
// an explicitly-owned store injected into the session coordinator; room
// capacity and name-uniqueness rules live here and nowhere else.
package registry

import (
	"errors"
	"sync"

	"github.com/javierandres04/spot-it-server/internal/domain"
)

// DefaultRoomCapacity is the number of players a room holds at most.
const DefaultRoomCapacity = 6

var (
	// ErrRoomFull rejects a join into a room at capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrNoRoom rejects a join into a room nobody is in.
	ErrNoRoom = errors.New("room does not exist")
	// ErrNameInUse rejects a join with a name already taken in the room.
	ErrNameInUse = errors.New("name already in use in this room")
	// ErrNotFound signals a lookup miss on removal.
	ErrNotFound = errors.New("player not found")
)

// Store holds every player record in the process. Nakama runs each match loop
// on its own goroutine while RPCs read the store concurrently, so access is
// guarded by a RWMutex.
type Store struct {
	mu       sync.RWMutex
	capacity int
	players  []*domain.Player
}

// New constructs an empty store. A non-positive capacity falls back to
// DefaultRoomCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultRoomCapacity
	}
	return &Store{capacity: capacity}
}

// AddPlayer stores a player record. A record with the same (room, name) is
// replaced in place, which covers reconnecting under the same name even in a
// full room. Otherwise the record is appended, or ErrRoomFull is returned
// with no mutation when the room is at capacity.
func (s *Store) AddPlayer(p *domain.Player) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for i, existing := range s.players {
		if existing.Room != p.Room {
			continue
		}
		if existing.Name == p.Name {
			s.players[i] = p
			return p, nil
		}
		count++
	}
	if count >= s.capacity {
		return nil, ErrRoomFull
	}
	s.players = append(s.players, p)
	return p, nil
}

// RemovePlayer removes and returns the matching record, or ErrNotFound
// without mutation.
func (s *Store) RemovePlayer(room, name string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.players {
		if p.Room == room && p.Name == name {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// GetPlayer returns the record for (room, name), or nil when absent.
func (s *Store) GetPlayer(room, name string) *domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.players {
		if p.Room == room && p.Name == name {
			return p
		}
	}
	return nil
}

// GetPlayerByConnection returns the record owning the connection, or nil.
// Used for disconnect handling where only the transport identity is known.
func (s *Store) GetPlayerByConnection(connID string) *domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.players {
		if p.ConnectionID == connID {
			return p
		}
	}
	return nil
}

// ListPlayers returns the room's members in insertion order. Index 0 is the
// canonical mode source and the auto-promoted host.
func (s *Store) ListPlayers(room string) []*domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Player
	for _, p := range s.players {
		if p.Room == room {
			out = append(out, p)
		}
	}
	return out
}

// ValidateJoin is the pre-flight check for joining an existing room. It makes
// no mutation and returns ErrNoRoom, ErrRoomFull or ErrNameInUse, or nil when
// the join may proceed.
func (s *Store) ValidateJoin(room, name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.players {
		if p.Room != room {
			continue
		}
		if p.Name == name {
			return ErrNameInUse
		}
		count++
	}
	if count == 0 {
		return ErrNoRoom
	}
	if count >= s.capacity {
		return ErrRoomFull
	}
	return nil
}
