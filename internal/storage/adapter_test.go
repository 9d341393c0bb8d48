package storage

import (
	"context"
	"testing"

	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(policy Policy) (*Adapter, *MemoryStore, *MemoryStore) {
	persistent := NewMemoryStore()
	session := NewMemoryStore()
	return NewAdapter(persistent, session, policy, nil), persistent, session
}

func TestAdapter_TokenRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, policy := range []Policy{PolicyPersistent, PolicySession} {
		t.Run(policy.String(), func(t *testing.T) {
			adapter, _, _ := newTestAdapter(policy)

			require.NoError(t, adapter.SetToken(ctx, "abc"))
			tok, err := adapter.GetToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, "abc", tok)

			require.NoError(t, adapter.ClearAuth(ctx))
			tok, err = adapter.GetToken(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)
		})
	}
}

func TestAdapter_WritesFollowPolicy(t *testing.T) {
	ctx := context.Background()

	adapter, persistent, session := newTestAdapter(PolicyPersistent)
	require.NoError(t, adapter.SetToken(ctx, "remembered"))

	_, inPersistent, _ := persistent.Get(ctx, KeyAuthToken)
	_, inSession, _ := session.Get(ctx, KeyAuthToken)
	assert.True(t, inPersistent)
	assert.False(t, inSession)

	sessionOnly := adapter.WithPolicy(PolicySession)
	require.NoError(t, adapter.ClearAuth(ctx))
	require.NoError(t, sessionOnly.SetToken(ctx, "ephemeral"))

	_, inPersistent, _ = persistent.Get(ctx, KeyAuthToken)
	_, inSession, _ = session.Get(ctx, KeyAuthToken)
	assert.False(t, inPersistent)
	assert.True(t, inSession)
	assert.Equal(t, PolicyPersistent, adapter.Policy())
}

func TestAdapter_ReadsPersistentFirst(t *testing.T) {
	ctx := context.Background()
	adapter, persistent, session := newTestAdapter(PolicySession)

	require.NoError(t, session.Set(ctx, KeyAuthToken, "from-session"))
	tok, _ := adapter.GetToken(ctx)
	assert.Equal(t, "from-session", tok)

	require.NoError(t, persistent.Set(ctx, KeyAuthToken, "from-persistent"))
	tok, _ = adapter.GetToken(ctx)
	assert.Equal(t, "from-persistent", tok)
}

func TestAdapter_ClearAuthIsIdempotent(t *testing.T) {
	ctx := context.Background()
	adapter, persistent, session := newTestAdapter(PolicyPersistent)

	require.NoError(t, adapter.SetToken(ctx, "abc"))
	require.NoError(t, adapter.SetRefreshToken(ctx, "refresh"))
	require.NoError(t, adapter.SetUser(ctx, &types.UserProfile{ID: "u1"}))
	require.NoError(t, adapter.SetTheme(ctx, "dark"))
	require.NoError(t, session.Set(ctx, "scratch", "x"))

	require.NoError(t, adapter.ClearAuth(ctx))
	require.NoError(t, adapter.ClearAuth(ctx))

	for _, key := range []string{KeyAuthToken, KeyRefreshToken, KeyUser} {
		_, ok, _ := persistent.Get(ctx, key)
		assert.False(t, ok, key)
	}
	_, ok, _ := session.Get(ctx, "scratch")
	assert.False(t, ok, "session tier emptied")

	theme, _ := adapter.GetTheme(ctx)
	assert.Equal(t, "dark", theme)
}

func TestAdapter_UserRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter, _, _ := newTestAdapter(PolicySession)

	balance := 150000.0
	user := &types.UserProfile{
		ID:            "u1",
		Email:         "a@b.c",
		Username:      "ana",
		Role:          types.RoleAdmin,
		IsPremium:     true,
		WalletBalance: &balance,
	}
	require.NoError(t, adapter.SetUser(ctx, user))

	got, err := adapter.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, types.RoleAdmin, got.Role)
	assert.Equal(t, 150000.0, got.Balance())
}

func TestAdapter_CorruptedUserIsPurged(t *testing.T) {
	ctx := context.Background()
	adapter, persistent, _ := newTestAdapter(PolicyPersistent)

	require.NoError(t, persistent.Set(ctx, KeyUser, "{not json"))

	user, err := adapter.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, ok, _ := persistent.Get(ctx, KeyUser)
	assert.False(t, ok, "corrupted entry should be removed")

	user, err = adapter.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAdapter_LiteralNullUser(t *testing.T) {
	ctx := context.Background()
	adapter, _, session := newTestAdapter(PolicySession)

	for _, v := range []string{"undefined", "null"} {
		require.NoError(t, session.Set(ctx, KeyUser, v))
		user, err := adapter.GetUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)
	}
}

func TestAdapter_SessionTokenAndUserTogether(t *testing.T) {
	ctx := context.Background()
	adapter, _, _ := newTestAdapter(PolicySession)

	err := adapter.SaveSession(ctx, &types.Session{Token: "abc"})
	assert.Error(t, err)

	s, err := adapter.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, adapter.SetToken(ctx, "orphan"))
	s, err = adapter.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s, "a token without a user is not a session")

	require.NoError(t, adapter.SaveSession(ctx, &types.Session{Token: "abc", User: &types.UserProfile{ID: "u1"}}))
	s, err = adapter.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "abc", s.Token)
	assert.Equal(t, "u1", s.User.ID)
}

func TestAdapter_RememberMeAndRecordedPolicy(t *testing.T) {
	ctx := context.Background()
	adapter, persistent, _ := newTestAdapter(PolicySession)

	assert.Equal(t, PolicySession, RecordedPolicy(ctx, persistent))

	require.NoError(t, adapter.SetRememberMe(ctx, true))
	remember, err := adapter.GetRememberMe(ctx)
	require.NoError(t, err)
	assert.True(t, remember)
	assert.Equal(t, PolicyPersistent, RecordedPolicy(ctx, persistent))
}

func TestAdapter_Preferences(t *testing.T) {
	ctx := context.Background()
	adapter, _, _ := newTestAdapter(PolicySession)

	require.NoError(t, adapter.SetLanguage(ctx, "vi"))
	lang, _ := adapter.GetLanguage(ctx)
	assert.Equal(t, "vi", lang)

	require.NoError(t, adapter.ClearAll(ctx))
	lang, _ = adapter.GetLanguage(ctx)
	assert.Empty(t, lang)
}
