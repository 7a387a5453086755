package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	val, err := s.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Empty(t, val, "absent key reads as empty, not as an error")

	require.NoError(t, s.Set(ctx, KeyUserID, "u-1"))
	val, err = s.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "u-1", val)

	ok, err := s.Exists(ctx, KeyUserID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, KeyUserID))
	ok, err = s.Exists(ctx, KeyUserID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, KeyUserID, "u-persisted"))
	require.NoError(t, s1.Set(ctx, KeyDeviceToken, "tok-1"))

	// A fresh store over the same directory sees the same values
	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	val, err := s2.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "u-persisted", val)

	require.NoError(t, s2.Delete(ctx, KeyDeviceToken))
	ok, err := s2.Exists(ctx, KeyDeviceToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreDeleteAbsentKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Delete(ctx, "never-set"))
}

func TestManagerUserIDStable(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewInMemoryStore(), nil)

	first, err := m.UserID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second, "user id must be minted once and reused")
}

func TestManagerDeviceTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewInMemoryStore(), nil)

	registered, err := m.Registered(ctx)
	require.NoError(t, err)
	assert.False(t, registered)

	require.NoError(t, m.SetDeviceToken(ctx, "tok-9"))
	tok, err := m.DeviceToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", tok)

	registered, err = m.Registered(ctx)
	require.NoError(t, err)
	assert.True(t, registered)

	require.NoError(t, m.DeleteDeviceToken(ctx))
	tok, err = m.DeviceToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}
