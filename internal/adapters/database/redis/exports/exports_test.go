package exports

import (
	"context"
	"testing"
	"time"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStorage(client), mr
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	storage, mr := newStorage(t)

	_, err := storage.Get(ctx, "abc")
	assert.ErrorIs(t, err, errorz.ErrCacheMiss)

	data := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	require.NoError(t, storage.Set(ctx, "abc", data, time.Minute))
	assert.True(t, mr.Exists("export:abc"))

	got, err := storage.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	mr.FastForward(2 * time.Minute)
	_, err = storage.Get(ctx, "abc")
	assert.ErrorIs(t, err, errorz.ErrCacheMiss)
}

func TestStorage_Clear(t *testing.T) {
	ctx := context.Background()
	storage, _ := newStorage(t)

	require.NoError(t, storage.Set(ctx, "k", []byte("svg"), 0))
	require.NoError(t, storage.Clear(ctx, "k"))
	_, err := storage.Get(ctx, "k")
	assert.ErrorIs(t, err, errorz.ErrCacheMiss)
}

func TestStorage_Unavailable(t *testing.T) {
	storage, mr := newStorage(t)
	mr.Close()

	_, err := storage.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errorz.ErrCacheMiss)
}
