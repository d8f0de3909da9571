package gelf

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFromSlogJSON(t *testing.T) {
	w := &Writer{hostname: "desk-1", service: "checkindesk"}
	m := w.Message([]byte(`{"time":"2026-10-18T09:00:00Z","level":"WARN","msg":"pool: ping failed","client":2,"id":"abc"}` + "\n"))

	assert.Equal(t, "pool: ping failed", m["short_message"])
	assert.Equal(t, 4, m["level"])
	assert.Equal(t, "desk-1", m["host"])
	assert.Equal(t, float64(2), m["_client"])
	assert.Equal(t, "abc", m["_record_id"])
	assert.InDelta(t, float64(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC).Unix()), m["timestamp"], 0.001)
	_, hasReserved := m["_id"]
	assert.False(t, hasReserved)
}

func TestMessageFromPlainLine(t *testing.T) {
	w := &Writer{hostname: "desk-1", service: "checkindesk"}
	m := w.Message([]byte("server starting\n"))
	assert.Equal(t, "server starting", m["short_message"])
	assert.Equal(t, 6, m["level"])
}

func TestWriteSendsUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	w, err := New(pc.LocalAddr().String(), "checkindesk")
	require.NoError(t, err)
	defer w.Close()

	line := []byte(`{"level":"ERROR","msg":"Storage write error","key":"submissions"}`)
	n, err := w.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 8192)
	read, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf[:read], &got))
	assert.Equal(t, "1.1", got["version"])
	assert.Equal(t, "Storage write error", got["short_message"])
	assert.Equal(t, float64(3), got["level"])
	assert.Equal(t, "submissions", got["_key"])
	assert.Equal(t, "checkindesk", got["_service"])
}
