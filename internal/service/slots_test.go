package service

import (
	"context"
	"testing"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	mockauth "github.com/corruptguard/helix/internal/mocks/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSlots_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := mockauth.NewMemorySessionStore()
	slots := sessionSlots{store: store}

	sess := walletSession("tok")
	require.NoError(t, slots.save(ctx, sess))
	assert.ElementsMatch(t, []string{SlotSession}, store.Keys())

	got, err := slots.load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	demo := sess
	demo.DemoMode = true
	require.NoError(t, slots.save(ctx, demo))
	assert.ElementsMatch(t, []string{SlotSession, SlotDemoToken, SlotDemoRole}, store.Keys())

	require.NoError(t, saveIdentity(ctx, store, sess.User, "raw-id-token"))
	require.NoError(t, slots.clear(ctx))
	assert.Empty(t, store.Keys())
}

func TestSessionSlots_SaveDropsStaleDemoSlots(t *testing.T) {
	ctx := context.Background()
	store := mockauth.NewMemorySessionStore()
	slots := sessionSlots{store: store}

	demo := walletSession("demo-tok")
	demo.DemoMode = true
	require.NoError(t, slots.save(ctx, demo))
	require.NoError(t, saveIdentity(ctx, store, demo.User, "raw-id-token"))

	require.NoError(t, slots.save(ctx, walletSession("tok")))
	assert.ElementsMatch(t, []string{SlotSession, SlotIdentityUser, SlotIdentityToken}, store.Keys())
}

func TestSessionSlots_StoredLayout(t *testing.T) {
	ctx := context.Background()
	store := mockauth.NewMemorySessionStore()
	require.NoError(t, sessionSlots{store: store}.save(ctx, walletSession("tok")))

	raw, err := store.Get(ctx, SlotSession)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"token": "tok",
		"sessionId": "sid-1",
		"user": {"principal": "0.0.4821", "role": "citizen", "name": "Hedera User", "permissions": ["transparency_access"]},
		"demoMode": false
	}`, string(raw))
}

func TestSessionSlots_Mutate(t *testing.T) {
	ctx := context.Background()
	store := mockauth.NewMemorySessionStore()
	slots := sessionSlots{store: store}

	err := slots.mutate(ctx, func(s *domainauth.Session) { s.Token = "x" })
	require.ErrorIs(t, err, errNoStoredSession)
	assert.Empty(t, store.Keys())

	require.NoError(t, slots.save(ctx, walletSession("tok")))
	require.NoError(t, slots.mutate(ctx, func(s *domainauth.Session) { s.Token = "tok-2" }))
	got, err := slots.load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)
	assert.Equal(t, "sid-1", got.SessionID)
}
