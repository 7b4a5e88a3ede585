package gelf

import (
	"net"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	entry := []byte(`{"level":"warn","ts":1700000000.5,"msg":"Snapshot refresh failed","error":"timeout","id":"7","http.path":"/x"}`)

	payload, err := Encode(entry, "host-a", "check")
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "1.1", msg["version"])
	assert.Equal(t, "host-a", msg["host"])
	assert.Equal(t, "Snapshot refresh failed", msg["short_message"])
	assert.Equal(t, float64(4), msg["level"])
	assert.Equal(t, 1700000000.5, msg["timestamp"])
	assert.Equal(t, "check", msg["_service"])
	assert.Equal(t, "timeout", msg["_error"])
	assert.Equal(t, "7", msg["_field_id"])
	assert.Equal(t, "/x", msg["_http_path"])
	assert.NotContains(t, msg, "_msg")
}

func TestEncodeRejectsGarbage(t *testing.T) {
	_, err := Encode([]byte("not json"), "h", "s")
	assert.Error(t, err)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, 7, Severity("debug"))
	assert.Equal(t, 6, Severity("info"))
	assert.Equal(t, 3, Severity("error"))
	assert.Equal(t, 6, Severity(""))
}

func TestWriterSendsDatagram(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	w, err := New(pc.LocalAddr().String(), "check")
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Write([]byte(`{"level":"info","msg":"hello"}`))
	require.NoError(t, err)
	assert.Positive(t, n)

	n, err = w.Write([]byte("garbage"))
	assert.NoError(t, err)
	assert.Equal(t, 7, n)

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 4096)
	read, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(buf[:read], &msg))
	assert.Equal(t, "hello", msg["short_message"])
	assert.Equal(t, float64(6), msg["level"])
}
