package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/livecast-dev/livecast/internal/domain"
)

var ErrConnNotFound = errors.New("connection not found")

// Hub is the threadsafe connection-layer bookkeeping: every open connection
// plus per-stream broadcast groups scoping relay fan-out. It never closes
// adapter-owned transports.
type Hub struct {
	mu     sync.RWMutex
	conns  map[ConnID]SignalConnection
	groups map[domain.StreamID]map[ConnID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[ConnID]SignalConnection),
		groups: make(map[domain.StreamID]map[ConnID]struct{}),
	}
}

func (h *Hub) Register(id ConnID, conn SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
	log.Info().Str("module", "core.hub").Str("conn", string(id)).Msg("connection registered")
}

// Unregister drops the connection and removes it from every group it joined.
func (h *Hub) Unregister(id ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
	for _, members := range h.groups {
		delete(members, id)
	}
	log.Info().Str("module", "core.hub").Str("conn", string(id)).Msg("connection unregistered")
}

func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// JoinGroup adds a connection to a stream's broadcast group, creating the
// group on first use. Joining twice is a no-op.
func (h *Hub) JoinGroup(stream domain.StreamID, id ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[stream]
	if !ok {
		members = make(map[ConnID]struct{})
		h.groups[stream] = members
	}
	members[id] = struct{}{}
	log.Debug().Str("module", "core.hub").Str("conn", string(id)).Str("stream", string(stream)).Msg("joined group")
}

// DropGroup discards a stream's broadcast group wholesale. Members' connections
// stay registered; only the grouping goes away with the session.
func (h *Hub) DropGroup(stream domain.StreamID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, stream)
	log.Debug().Str("module", "core.hub").Str("stream", string(stream)).Msg("group dropped")
}

func (h *Hub) GroupSize(stream domain.StreamID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[stream])
}

// BroadcastAll delivers a frame to every registered connection except from.
// Each delivery is independent; a full send queue drops that one recipient.
func (h *Hub) BroadcastAll(from ConnID, data Frame) PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := PublishResult{}
	for id, conn := range h.conns {
		if id == from {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.hub").Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("broadcast all")
	return res
}

// BroadcastGroup delivers a frame to a stream's group except from.
// A missing or empty group is a silent no-op.
func (h *Hub) BroadcastGroup(stream domain.StreamID, from ConnID, data Frame) PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := PublishResult{}
	for id := range h.groups[stream] {
		if id == from {
			continue
		}
		conn, ok := h.conns[id]
		if !ok {
			res.Dropped++
			continue
		}
		if err := conn.TrySend(data); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.hub").Str("stream", string(stream)).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("broadcast group")
	return res
}

// SendTo delivers a frame to a single connection.
func (h *Hub) SendTo(id ConnID, data Frame) error {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return ErrConnNotFound
	}
	return conn.TrySend(data)
}
