// Package oxidb is a TCP client for oxidb-server.
//
// Protocol: each message is [4-byte little-endian length][JSON payload].
// The server responds with {"ok": true, "data": ...} or
// {"ok": false, "error": "..."}.
package oxidb

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// maxFrame bounds a single response payload.
const maxFrame = 256 << 20

// Client is a TCP client for oxidb-server. Requests are serialized.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
}

// Connect dials addr ("host:port").
func Connect(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("oxidb: connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) send(data []byte) error {
	buf := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	_, err := c.conn.Write(buf)
	return err
}

func (c *Client) recv() ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, lenBuf); err != nil {
		return nil, fmt.Errorf("oxidb: read length: %w", err)
	}
	length := binary.LittleEndian.Uint32(lenBuf)
	if length > maxFrame {
		return nil, fmt.Errorf("oxidb: frame of %d bytes exceeds limit", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("oxidb: read payload: %w", err)
	}
	return payload, nil
}

type response struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// do sends one command and returns its data. The context deadline, if
// any, applies to the whole round trip.
func (c *Client) do(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("oxidb: set deadline: %w", err)
	}

	req, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("oxidb: marshal request: %w", err)
	}
	if err := c.send(req); err != nil {
		return nil, fmt.Errorf("oxidb: send: %w", err)
	}
	raw, err := c.recv()
	if err != nil {
		return nil, err
	}
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("oxidb: unmarshal response: %w", err)
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &Error{Msg: msg}
	}
	return resp.Data, nil
}

// Ping returns "pong" from a healthy server.
func (c *Client) Ping(ctx context.Context) (string, error) {
	data, err := c.do(ctx, map[string]any{"cmd": "ping"})
	if err != nil {
		return "", err
	}
	var s string
	_ = json.Unmarshal(data, &s)
	return s, nil
}

// Insert inserts one document.
func (c *Client) Insert(ctx context.Context, collection string, doc any) error {
	_, err := c.do(ctx, map[string]any{"cmd": "insert", "collection": collection, "doc": doc})
	return err
}

// Find decodes the documents matching query into out, which must be a
// pointer to a slice.
func (c *Client) Find(ctx context.Context, collection string, query map[string]any, out any) error {
	if query == nil {
		query = map[string]any{}
	}
	data, err := c.do(ctx, map[string]any{"cmd": "find", "collection": collection, "query": query})
	if err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("oxidb: decode documents: %w", err)
	}
	return nil
}

// Delete removes documents matching query.
func (c *Client) Delete(ctx context.Context, collection string, query map[string]any) error {
	_, err := c.do(ctx, map[string]any{"cmd": "delete", "collection": collection, "query": query})
	return err
}

// Count returns the number of documents matching query.
func (c *Client) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	data, err := c.do(ctx, map[string]any{"cmd": "count", "collection": collection, "query": query})
	if err != nil {
		return 0, err
	}
	var res struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return 0, fmt.Errorf("oxidb: decode count: %w", err)
	}
	return res.Count, nil
}

// CreateIndex creates a non-unique index on a field.
func (c *Client) CreateIndex(ctx context.Context, collection, field string) error {
	_, err := c.do(ctx, map[string]any{"cmd": "create_index", "collection": collection, "field": field})
	return err
}
