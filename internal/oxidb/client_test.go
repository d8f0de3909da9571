package oxidb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/checkindesk/internal/oxidb"
	"github.com/parisxmas/checkindesk/internal/oxidb/oxidbtest"
)

func getClient(t *testing.T) (*oxidb.Client, *oxidbtest.Server) {
	t.Helper()
	srv := oxidbtest.Start(t)
	host, port := srv.Addr()
	c, err := oxidb.Connect(host, port, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestPing(t *testing.T) {
	c, _ := getClient(t)

	pong, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)
}

func TestBlobRoundTrip(t *testing.T) {
	c, srv := getClient(t)
	ctx := context.Background()

	require.NoError(t, c.CreateBucket(ctx, "checkins"))
	// creating twice is tolerated
	require.NoError(t, c.CreateBucket(ctx, "checkins"))

	payload := []byte(`[{"id":"a1","name":"Asha"}]`)
	require.NoError(t, c.PutObject(ctx, "checkins", "submissions", payload, "application/json"))

	stored, ok := srv.Object("checkins", "submissions")
	require.True(t, ok)
	assert.Equal(t, payload, stored)

	got, err := c.GetObject(ctx, "checkins", "submissions")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, c.DeleteObject(ctx, "checkins", "submissions"))
	_, err = c.GetObject(ctx, "checkins", "submissions")
	require.Error(t, err)
	assert.True(t, oxidb.IsNotFound(err))
}

func TestServerError(t *testing.T) {
	c, srv := getClient(t)
	ctx := context.Background()

	srv.FailNext("disk full")
	err := c.PutObject(ctx, "checkins", "k", []byte("x"), "")
	require.Error(t, err)
	assert.False(t, oxidb.IsNotFound(err))

	var oxErr *oxidb.Error
	require.ErrorAs(t, err, &oxErr)
	assert.Equal(t, "disk full", oxErr.Msg)
}

func TestConnectRefused(t *testing.T) {
	_, err := oxidb.Connect("127.0.0.1", 1, 200*time.Millisecond)
	assert.Error(t, err)
}
