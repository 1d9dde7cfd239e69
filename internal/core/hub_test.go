package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (c *stubConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return assert.AnError
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *stubConn) Close() {}

func (c *stubConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestHub_BroadcastAllExcludesSender(t *testing.T) {
	hub := NewHub()
	a, b, c := &stubConn{}, &stubConn{}, &stubConn{}
	hub.Register("a", a)
	hub.Register("b", b)
	hub.Register("c", c)

	res := hub.BroadcastAll("a", Frame(`x`))

	assert.Equal(t, 2, res.SentTo)
	assert.Equal(t, 0, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 1, c.count())
}

func TestHub_BroadcastGroupScopesDelivery(t *testing.T) {
	hub := NewHub()
	in, out := &stubConn{}, &stubConn{}
	hub.Register("in", in)
	hub.Register("out", out)
	hub.JoinGroup("s1", "in")

	res := hub.BroadcastGroup("s1", "nobody", Frame(`x`))

	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, 1, in.count())
	assert.Equal(t, 0, out.count())
}

func TestHub_BroadcastMissingGroupIsNoop(t *testing.T) {
	hub := NewHub()
	a := &stubConn{}
	hub.Register("a", a)

	res := hub.BroadcastGroup("ghost", "a", Frame(`x`))

	assert.Equal(t, PublishResult{}, res)
	assert.Equal(t, 0, a.count())
}

func TestHub_DeadRecipientIsIndependent(t *testing.T) {
	hub := NewHub()
	dead, healthy := &stubConn{fail: true}, &stubConn{}
	hub.Register("dead", dead)
	hub.Register("healthy", healthy)
	hub.JoinGroup("s1", "dead")
	hub.JoinGroup("s1", "healthy")

	res := hub.BroadcastGroup("s1", "nobody", Frame(`x`))

	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 1, healthy.count())
}

func TestHub_UnregisterLeavesAllGroups(t *testing.T) {
	hub := NewHub()
	a := &stubConn{}
	hub.Register("a", a)
	hub.JoinGroup("s1", "a")
	hub.JoinGroup("s2", "a")

	hub.Unregister("a")

	assert.Equal(t, 0, hub.ConnCount())
	assert.Equal(t, 0, hub.GroupSize("s1"))
	assert.Equal(t, 0, hub.GroupSize("s2"))
}

func TestHub_SendToUnknownConn(t *testing.T) {
	hub := NewHub()
	assert.ErrorIs(t, hub.SendTo("ghost", Frame(`x`)), ErrConnNotFound)
}

func TestHub_JoinGroupIdempotent(t *testing.T) {
	hub := NewHub()
	a := &stubConn{}
	hub.Register("a", a)
	hub.JoinGroup("s1", "a")
	hub.JoinGroup("s1", "a")
	assert.Equal(t, 1, hub.GroupSize("s1"))
}
