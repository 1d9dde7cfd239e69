package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecast-dev/livecast/internal/domain"
)

func TestRegistry_CreateReplacesExisting(t *testing.T) {
	reg := NewRegistry()

	reg.Create("s1", "connA")
	_, err := reg.Join("s1", "v1")
	require.NoError(t, err)
	reg.Create("s1", "connB")

	assert.Equal(t, 1, reg.Count())

	s, err := reg.FindByOwner("connB")
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("s1"), s.ID)
	assert.Equal(t, 0, s.MemberCount(), "replacement starts with an empty member set")

	_, err = reg.FindByOwner("connA")
	assert.ErrorIs(t, err, ErrNotFound, "prior owner loses the session")
}

func TestRegistry_CreateTwiceBySameOwner(t *testing.T) {
	reg := NewRegistry()

	reg.Create("s1", "connA")
	reg.Create("s2", "connA")

	assert.Equal(t, 1, reg.Count(), "a connection owns at most one session")
	s, err := reg.FindByOwner("connA")
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("s2"), s.ID)
}

func TestRegistry_JoinGrowth(t *testing.T) {
	reg := NewRegistry()
	reg.Create("s1", "connA")

	count, err := reg.Join("s1", "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = reg.Join("s1", "v2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-joining is idempotent.
	count, err = reg.Join("s1", "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRegistry_JoinMissingSession(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Join("s404", "v1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, reg.Count(), "failed join mutates nothing")
}

func TestRegistry_EndRemoves(t *testing.T) {
	reg := NewRegistry()
	reg.Create("s1", "connA")

	s, err := reg.End("s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("s1"), s.ID)
	assert.Equal(t, 0, reg.Count())

	_, err = reg.FindByOwner("connA")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reg.End("s1")
	assert.ErrorIs(t, err, ErrNotFound, "ending twice is a safe no-op")
}

func TestRegistry_StreamLifecycle(t *testing.T) {
	reg := NewRegistry()

	reg.Create("s1", "streamerA")

	count, err := reg.Join("s1", "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = reg.Join("s1", "v2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	s, err := reg.End("s1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.UserID]struct{}{"v1": {}, "v2": {}}, s.Members)

	_, err = reg.End("s1")
	assert.ErrorIs(t, err, ErrNotFound)
}
