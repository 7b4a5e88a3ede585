package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcella-castro/check-pesquisa-mj/internal/oxidb/oxidbtest"
)

func TestPoolRoundRobin(t *testing.T) {
	srv, err := oxidbtest.NewServer()
	require.NoError(t, err)
	defer srv.Close()

	p, err := NewPool(context.Background(), srv.Addr(), 2)
	require.NoError(t, err)
	defer p.Close()

	a, b, c := p.Get(), p.Get(), p.Get()
	assert.NotSame(t, a, b)
	assert.Same(t, a, c)
	assert.Equal(t, 2, p.Size())
	assert.NoError(t, p.Ping(context.Background()))
}

func TestPoolReconnect(t *testing.T) {
	srv, err := oxidbtest.NewServer()
	require.NoError(t, err)
	defer srv.Close()

	p, err := NewPool(context.Background(), srv.Addr(), 1)
	require.NoError(t, err)
	defer p.Close()

	before := p.Get()
	p.reconnect(0)
	after := p.Get()
	assert.NotSame(t, before, after)
	assert.NoError(t, p.Ping(context.Background()))
}

func TestPoolRejectsBadInput(t *testing.T) {
	_, err := NewPool(context.Background(), "127.0.0.1:1", 0)
	assert.Error(t, err)

	_, err = NewPool(context.Background(), "127.0.0.1:1", 1)
	assert.Error(t, err)
}
