package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenTokens(secret string, at time.Time) *Tokens {
	t := NewTokens(secret)
	t.now = func() time.Time { return at }
	return t
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tk := frozenTokens("secret", time.Unix(1_700_000_000, 0))

	token, err := tk.Issue("user-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")))

	sub, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokens_Expired(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	tk := frozenTokens("secret", issued)

	token, err := tk.Issue("user-1", time.Hour)
	require.NoError(t, err)

	tk.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tk.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokens_WrongSecret(t *testing.T) {
	tk := frozenTokens("secret", time.Unix(1_700_000_000, 0))
	token, err := tk.Issue("user-1", time.Hour)
	require.NoError(t, err)

	other := frozenTokens("different", time.Unix(1_700_000_000, 0))
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokens_TamperedPayload(t *testing.T) {
	tk := frozenTokens("secret", time.Unix(1_700_000_000, 0))
	token, err := tk.Issue("user-1", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	_, err = tk.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokens_Garbage(t *testing.T) {
	tk := NewTokens("secret")
	for _, bad := range []string{"", "a", "a.b", "a.b.c.d", strings.Repeat("x", 5000)} {
		_, err := tk.Verify(bad)
		assert.Error(t, err, "input: %q", bad)
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
