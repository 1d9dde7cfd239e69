package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/livecast-dev/livecast/internal/core"
	"github.com/livecast-dev/livecast/internal/domain"
)

var ErrNotFound = errors.New("session not found")

// Session is one live stream session: the connection that announced it and
// the set of viewers that joined. Owner never changes after creation.
type Session struct {
	ID      domain.StreamID
	Owner   core.ConnID
	Members map[domain.UserID]struct{}
}

func (s *Session) MemberCount() int { return len(s.Members) }

// Registry owns the process-wide map of live sessions. All access is guarded
// by one mutex; no method performs I/O, so every operation is a single atomic
// read-modify-write.
type Registry struct {
	mu       sync.Mutex
	sessions map[domain.StreamID]*Session
	byOwner  map[core.ConnID]domain.StreamID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.StreamID]*Session),
		byOwner:  make(map[core.ConnID]domain.StreamID),
	}
}

// Create inserts a live session with an empty member set. Creating over an
// existing id replaces it (last writer wins); the prior entry is discarded.
// A connection owns at most one session, so a second Create from the same
// connection replaces its previous session too.
func (r *Registry) Create(id domain.StreamID, owner core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.sessions[id]; ok {
		delete(r.byOwner, prev.Owner)
		log.Warn().Str("module", "app.registry").Str("stream", string(id)).Str("prev_owner", string(prev.Owner)).Msg("session replaced")
	}
	if prevID, ok := r.byOwner[owner]; ok && prevID != id {
		delete(r.sessions, prevID)
		log.Warn().Str("module", "app.registry").Str("conn", string(owner)).Str("prev_stream", string(prevID)).Msg("owner replaced own session")
	}
	r.sessions[id] = &Session{
		ID:      id,
		Owner:   owner,
		Members: make(map[domain.UserID]struct{}),
	}
	r.byOwner[owner] = id
	log.Info().Str("module", "app.registry").Str("stream", string(id)).Str("conn", string(owner)).Msg("session created")
}

// Join adds a viewer to a live session's member set and returns the resulting
// member count. Adding a present member is a no-op that returns the unchanged
// count. Joining a missing session returns ErrNotFound and mutates nothing.
func (r *Registry) Join(id domain.StreamID, viewer domain.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	s.Members[viewer] = struct{}{}
	log.Info().Str("module", "app.registry").Str("stream", string(id)).Str("viewer", string(viewer)).Int("count", len(s.Members)).Msg("viewer joined")
	return len(s.Members), nil
}

// End removes and returns the session. Ending an absent id is a safe no-op
// returning ErrNotFound.
func (r *Registry) End(id domain.StreamID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.sessions, id)
	delete(r.byOwner, s.Owner)
	log.Info().Str("module", "app.registry").Str("stream", string(id)).Int("members", len(s.Members)).Msg("session ended")
	return s, nil
}

// FindByOwner resolves the session owned by a connection, used only for
// disconnect cleanup. The owner index replaces a linear scan and enforces
// the one-connection-one-session invariant.
func (r *Registry) FindByOwner(conn core.ConnID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOwner[conn]
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
