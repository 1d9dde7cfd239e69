package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecast-dev/livecast/internal/app"
	"github.com/livecast-dev/livecast/internal/core"
)

func newTestServer(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := core.NewHub()
	relay := app.NewRelay(app.NewRegistry(), hub)
	ctl := NewController(relay, 32768, 30*time.Second, 5*time.Second)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		ctl.Handle(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readMsg(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func waitConns(t *testing.T, hub *core.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ConnCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestSignal_StreamRoundTrip(t *testing.T) {
	srv, hub := newTestServer(t)

	streamer := dial(t, srv)
	viewer := dial(t, srv)
	waitConns(t, hub, 2)

	require.NoError(t, streamer.WriteJSON(map[string]any{
		"type": "start-stream", "streamId": "s1", "title": "first light",
	}))

	announce := readMsg(t, viewer)
	assert.Equal(t, "new-stream", announce["type"])
	assert.Equal(t, "s1", announce["streamId"])
	assert.Equal(t, "first light", announce["title"])

	require.NoError(t, viewer.WriteJSON(map[string]any{
		"type": "join-stream", "streamId": "s1", "viewerId": "v1",
	}))

	joined := readMsg(t, streamer)
	assert.Equal(t, "viewer-joined", joined["type"])
	assert.Equal(t, "v1", joined["viewerId"])
	assert.Equal(t, float64(1), joined["viewerCount"])
}

func TestSignal_OwnerSocketCloseEndsStream(t *testing.T) {
	srv, hub := newTestServer(t)

	streamer := dial(t, srv)
	viewer := dial(t, srv)
	waitConns(t, hub, 2)

	require.NoError(t, streamer.WriteJSON(map[string]any{
		"type": "start-stream", "streamId": "s1",
	}))
	readMsg(t, viewer) // new-stream

	require.NoError(t, viewer.WriteJSON(map[string]any{
		"type": "join-stream", "streamId": "s1", "viewerId": "v1",
	}))
	readMsg(t, streamer) // viewer-joined

	require.NoError(t, streamer.Close())

	ended := readMsg(t, viewer)
	assert.Equal(t, "stream-ended", ended["type"])
	waitConns(t, hub, 1)
}
