package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueVerify(t *testing.T) {
	m := NewManager("secret", 0)

	tok, err := m.Issue("user-1")
	require.NoError(t, err)

	uid, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestManager_ExpiryIs360000Seconds(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager("secret", 0)
	m.now = func() time.Time { return issued }

	tok, err := m.Issue("user-1")
	require.NoError(t, err)

	var c claims
	_, _, err = jwt.NewParser().ParseUnverified(tok, &c)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(360000*time.Second).Unix(), c.ExpiresAt.Unix())

	m.now = func() time.Time { return issued.Add(360001 * time.Second) }
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_VerifyRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	other := NewManager("other", time.Hour)
	foreign, err := other.Issue("user-1")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, claims{User: userClaim{ID: "user-1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name string
		tok  string
		want error
	}{
		{"empty", "", ErrNoToken},
		{"malformed", "not-a-token", ErrInvalidToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"alg none", unsigned, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.tok)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("secret2", hash))

	again, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must differ per hash")
}

func TestAvatarURL(t *testing.T) {
	assert.Equal(t,
		AvatarURL("a@x.com"),
		AvatarURL("  A@X.com "),
	)
	assert.Contains(t, AvatarURL("a@x.com"), "?s=200&r=pg&d=mm")
	assert.Contains(t, AvatarURL("a@x.com"), "//www.gravatar.com/avatar/")
}
