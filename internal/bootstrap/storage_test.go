package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/corruptguard/helix/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSessionStore_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	st, err := BuildSessionStore(ctx, StorageConfig{
		Storage: config.StorageConfig{Kind: config.StoreKindFile, File: path, EncryptionKey: "k"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Store.Set(ctx, "authToken", []byte("tok-1")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok-1", "slots must be sealed on disk")

	got, err := st.Store.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.Equal(t, []byte("tok-1"), got)
}

func TestBuildSessionStore_Memory(t *testing.T) {
	ctx := context.Background()

	st, err := BuildSessionStore(ctx, StorageConfig{Storage: config.StorageConfig{Kind: config.StoreKindMemory}})
	require.NoError(t, err)
	assert.Nil(t, st.DB)
	assert.Nil(t, st.Redis)
	assert.NoError(t, st.Close())

	require.NoError(t, st.Store.Set(ctx, "sessionId", []byte("sid-1")))
	got, err := st.Store.Get(ctx, "sessionId")
	require.NoError(t, err)
	assert.Equal(t, []byte("sid-1"), got)
}

func TestBuildSessionStore_Unsupported(t *testing.T) {
	_, err := BuildSessionStore(context.Background(), StorageConfig{Storage: config.StorageConfig{Kind: "etcd"}})
	assert.ErrorContains(t, err, "unsupported session store")
}

func TestStorage_CloseNil(t *testing.T) {
	var st *Storage
	assert.NoError(t, st.Close())
}
