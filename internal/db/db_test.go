package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/checkindesk/internal/oxidb/oxidbtest"
)

func TestPoolRoundRobin(t *testing.T) {
	srv := oxidbtest.Start(t)
	host, port := srv.Addr()

	p, err := NewPool(host, port, 3, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3, p.Size())
	first := p.Get()
	second := p.Get()
	third := p.Get()
	assert.NotSame(t, first, second)
	assert.NotSame(t, second, third)
	assert.Same(t, first, p.Get())

	pong, err := first.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)
}

func TestPoolConnectFailure(t *testing.T) {
	_, err := NewPool("127.0.0.1", 1, 2, nil)
	assert.Error(t, err)
}

func TestPoolCloseTwice(t *testing.T) {
	srv := oxidbtest.Start(t)
	host, port := srv.Addr()

	p, err := NewPool(host, port, 1, nil)
	require.NoError(t, err)
	p.Close()
	p.Close()
}
