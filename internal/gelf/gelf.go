package gelf

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Entry keys written by the JSON encoder that feeds the writer.
const (
	KeyMessage = "msg"
	KeyLevel   = "level"
	KeyTime    = "ts"
)

// Writer sends GELF messages over UDP. Each Write receives one JSON encoded
// log entry and emits one GELF 1.1 datagram.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. Delivery is fire-and-forget: a failed send or
// an undecodable entry never fails the log call.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := Encode(p, w.hostname, w.service)
	if err != nil {
		return len(p), nil
	}
	w.conn.Write(payload)
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (w *Writer) Sync() error {
	return nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

// Encode converts a JSON log entry into a GELF message. Fields other than
// message, level and time become "_" prefixed additional fields.
func Encode(entry []byte, host, service string) ([]byte, error) {
	var fields map[string]any
	if err := json.Unmarshal(entry, &fields); err != nil {
		return nil, err
	}

	msg, _ := fields[KeyMessage].(string)
	level, _ := fields[KeyLevel].(string)
	ts, ok := fields[KeyTime].(float64)
	if !ok {
		ts = float64(time.Now().UnixNano()) / 1e9
	}

	gelf := map[string]any{
		"version":       "1.1",
		"host":          host,
		"short_message": msg,
		"timestamp":     ts,
		"level":         Severity(level),
		"_service":      service,
	}
	for k, v := range fields {
		switch k {
		case KeyMessage, KeyLevel, KeyTime:
			continue
		case "id":
			// "_id" is reserved by GELF.
			k = "field_id"
		}
		gelf["_"+strings.ReplaceAll(k, ".", "_")] = v
	}
	return json.Marshal(gelf)
}

// Severity maps a zap level name to a syslog severity.
func Severity(level string) int {
	switch strings.ToLower(level) {
	case "debug":
		return 7
	case "warn":
		return 4
	case "error":
		return 3
	case "dpanic", "panic":
		return 2
	case "fatal":
		return 1
	}
	return 6
}
