package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Options{Host: mr.Host(), Port: mr.Port(), DB: 2})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Exports.Set(context.Background(), "k", []byte("v"), 0))
	mr.Select(2)
	assert.True(t, mr.Exists("export:k"))
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := New(context.Background(), Options{Host: host, Port: port})
	assert.ErrorContains(t, err, "failed to ping export storage")
}
