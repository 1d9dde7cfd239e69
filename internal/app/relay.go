package app

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/livecast-dev/livecast/internal/core"
	"github.com/livecast-dev/livecast/internal/domain"
	"github.com/livecast-dev/livecast/internal/metrics"
)

// Relay interprets inbound signal events on a connection, mutates the
// Registry, and routes outbound frames through the Hub. Handlers never block
// and never suspend between a registry check and its mutation; malformed or
// misaddressed events degrade to a no-op.
type Relay struct {
	Registry *Registry
	Hub      *core.Hub
}

func NewRelay(reg *Registry, hub *core.Hub) *Relay {
	return &Relay{Registry: reg, Hub: hub}
}

// OnConnect registers a freshly accepted connection.
func (rl *Relay) OnConnect(conn core.ConnID, sc core.SignalConnection) {
	rl.Hub.Register(conn, sc)
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsCurrent.Inc()
}

// OnDisconnect cleans up after a connection goes away. If the connection
// owned a live session, the session ends and its group learns about it.
func (rl *Relay) OnDisconnect(conn core.ConnID) {
	if s, err := rl.Registry.FindByOwner(conn); err == nil {
		rl.endSession(s.ID, conn)
	}
	rl.Hub.Unregister(conn)
	metrics.ConnectionsCurrent.Dec()
}

// OnMessage dispatches one inbound event. Unknown or malformed events are
// dropped without a response.
func (rl *Relay) OnMessage(conn core.ConnID, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("conn", string(conn)).Msg("bad json")
		metrics.SignalEvents.WithLabelValues("invalid", "dropped").Inc()
		return
	}

	switch env.Type {
	case EvStartStream:
		rl.handleStartStream(conn, data)
	case EvJoinStream:
		rl.handleJoinStream(conn, data)
	case EvOffer:
		rl.handleOffer(conn, data)
	case EvAnswer:
		rl.handleAnswer(conn, data)
	case EvICECandidate:
		rl.handleCandidate(conn, data)
	case EvEndStream:
		rl.handleEndStream(conn, data)
	default:
		log.Warn().Str("module", "app.relay").Str("type", env.Type).Msg("unknown signal")
		metrics.SignalEvents.WithLabelValues("unknown", "dropped").Inc()
	}
}

func (rl *Relay) handleStartStream(conn core.ConnID, data []byte) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		rl.drop(conn, EvStartStream, err)
		return
	}
	var id domain.StreamID
	if raw, ok := fields["streamId"]; ok {
		_ = json.Unmarshal(raw, &id)
	}
	if id == "" {
		rl.drop(conn, EvStartStream, errors.New("missing streamId"))
		return
	}

	rl.Registry.Create(id, conn)
	rl.Hub.JoinGroup(id, conn)

	// Re-announce with the original payload intact, only the type rewritten.
	fields["type"] = json.RawMessage(`"` + EvNewStream + `"`)
	out, err := json.Marshal(fields)
	if err != nil {
		rl.drop(conn, EvStartStream, err)
		return
	}
	res := rl.Hub.BroadcastAll(conn, out)
	rl.count(EvStartStream, res)
	log.Info().Str("module", "app.relay").Str("conn", string(conn)).Str("stream", string(id)).Msg("stream started")
}

func (rl *Relay) handleJoinStream(conn core.ConnID, data []byte) {
	var ev joinStreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		rl.drop(conn, EvJoinStream, err)
		return
	}
	if ev.StreamID == "" || ev.ViewerID == "" {
		rl.drop(conn, EvJoinStream, errors.New("missing streamId or viewerId"))
		return
	}

	// Transport group membership is granted even when the registry join
	// fails, so negotiation frames still reach this connection.
	rl.Hub.JoinGroup(ev.StreamID, conn)

	count, err := rl.Registry.Join(ev.StreamID, ev.ViewerID)
	if err != nil {
		log.Debug().Str("module", "app.relay").Str("stream", string(ev.StreamID)).Msg("join on missing session")
		metrics.SignalEvents.WithLabelValues(EvJoinStream, "not_found").Inc()
		return
	}

	out, _ := json.Marshal(viewerJoinedMsg{Type: EvViewerJoined, ViewerID: ev.ViewerID, ViewerCount: count})
	res := rl.Hub.BroadcastGroup(ev.StreamID, conn, out)
	rl.count(EvJoinStream, res)
}

func (rl *Relay) handleOffer(conn core.ConnID, data []byte) {
	var ev offerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		rl.drop(conn, EvOffer, err)
		return
	}
	if ev.StreamID == "" || len(ev.Offer) == 0 {
		rl.drop(conn, EvOffer, errors.New("missing streamId or offer"))
		return
	}
	out, _ := json.Marshal(offerMsg{Type: EvOffer, Offer: ev.Offer, From: string(conn)})
	res := rl.Hub.BroadcastGroup(ev.StreamID, conn, out)
	rl.count(EvOffer, res)
}

// handleAnswer is point-to-point: an answer always replies to one specific
// party's offer, never to the whole group.
func (rl *Relay) handleAnswer(conn core.ConnID, data []byte) {
	var ev answerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		rl.drop(conn, EvAnswer, err)
		return
	}
	if ev.To == "" || len(ev.Answer) == 0 {
		rl.drop(conn, EvAnswer, errors.New("missing to or answer"))
		return
	}
	out, _ := json.Marshal(answerMsg{Type: EvAnswer, Answer: ev.Answer, From: string(conn)})
	if err := rl.Hub.SendTo(core.ConnID(ev.To), out); err != nil {
		log.Debug().Str("module", "app.relay").Str("to", ev.To).Msg("answer target gone")
		metrics.SignalEvents.WithLabelValues(EvAnswer, "not_found").Inc()
		return
	}
	metrics.SignalEvents.WithLabelValues(EvAnswer, "relayed").Inc()
	metrics.Deliveries.WithLabelValues("sent").Inc()
}

func (rl *Relay) handleCandidate(conn core.ConnID, data []byte) {
	var ev candidateEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		rl.drop(conn, EvICECandidate, err)
		return
	}
	if ev.StreamID == "" || ev.Candidate == nil {
		rl.drop(conn, EvICECandidate, errors.New("missing streamId or candidate"))
		return
	}
	out, _ := json.Marshal(candidateMsg{Type: EvICECandidate, Candidate: *ev.Candidate, From: string(conn)})
	res := rl.Hub.BroadcastGroup(ev.StreamID, conn, out)
	rl.count(EvICECandidate, res)
}

func (rl *Relay) handleEndStream(conn core.ConnID, data []byte) {
	var ev endStreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		rl.drop(conn, EvEndStream, err)
		return
	}
	if ev.StreamID == "" {
		rl.drop(conn, EvEndStream, errors.New("missing streamId"))
		return
	}
	rl.endSession(ev.StreamID, conn)
}

// endSession notifies the stream's group (excluding the ender), discards the
// session, and drops its broadcast group. Ending an absent session is a
// silent no-op.
func (rl *Relay) endSession(id domain.StreamID, by core.ConnID) {
	if _, err := rl.Registry.End(id); err != nil {
		metrics.SignalEvents.WithLabelValues(EvEndStream, "not_found").Inc()
		return
	}
	out, _ := json.Marshal(streamEndedMsg{Type: EvStreamEnded})
	res := rl.Hub.BroadcastGroup(id, by, out)
	rl.Hub.DropGroup(id)
	rl.count(EvEndStream, res)
	log.Info().Str("module", "app.relay").Str("stream", string(id)).Str("conn", string(by)).Msg("stream ended")
}

func (rl *Relay) drop(conn core.ConnID, event string, err error) {
	log.Warn().Err(err).Str("module", "app.relay").Str("conn", string(conn)).Str("event", event).Msg("malformed event dropped")
	metrics.SignalEvents.WithLabelValues(event, "dropped").Inc()
}

func (rl *Relay) count(event string, res core.PublishResult) {
	metrics.SignalEvents.WithLabelValues(event, "relayed").Inc()
	metrics.Deliveries.WithLabelValues("sent").Add(float64(res.SentTo))
	metrics.Deliveries.WithLabelValues("dropped").Add(float64(res.Dropped))
}
