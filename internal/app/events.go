package app

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/livecast-dev/livecast/internal/domain"
)

// Inbound event names.
const (
	EvStartStream  = "start-stream"
	EvJoinStream   = "join-stream"
	EvOffer        = "offer"
	EvAnswer       = "answer"
	EvICECandidate = "ice-candidate"
	EvEndStream    = "end-stream"
)

// Outbound message names.
const (
	EvNewStream    = "new-stream"
	EvViewerJoined = "viewer-joined"
	EvStreamEnded  = "stream-ended"
)

type envelope struct {
	Type string `json:"type"`
}

type joinStreamEvent struct {
	Type     string          `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
	ViewerID domain.UserID   `json:"viewerId"`
}

type offerEvent struct {
	Type     string          `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
	Offer    json.RawMessage `json:"offer"`
}

type answerEvent struct {
	Type   string          `json:"type"`
	To     string          `json:"to"`
	Answer json.RawMessage `json:"answer"`
}

type candidateEvent struct {
	Type      string                   `json:"type"`
	StreamID  domain.StreamID          `json:"streamId"`
	Candidate *webrtc.ICECandidateInit `json:"candidate"`
}

type endStreamEvent struct {
	Type     string          `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
}

type viewerJoinedMsg struct {
	Type        string        `json:"type"`
	ViewerID    domain.UserID `json:"viewerId"`
	ViewerCount int           `json:"viewerCount"`
}

type offerMsg struct {
	Type  string          `json:"type"`
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

type answerMsg struct {
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

type candidateMsg struct {
	Type      string                  `json:"type"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	From      string                  `json:"from"`
}

type streamEndedMsg struct {
	Type string `json:"type"`
}
