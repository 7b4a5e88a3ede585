// Package oxidbtest runs an in-memory oxidb-server speaking the wire
// protocol, for tests.
package oxidbtest

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/goccy/go-json"
)

// Server holds collections of documents in memory.
type Server struct {
	ln net.Listener

	mu          sync.Mutex
	collections map[string][]map[string]any
	indexes     map[string][]string
	failMsg     string
	failIn      int
	wg          sync.WaitGroup
}

// NewServer starts a server on a loopback port.
func NewServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ln:          ln,
		collections: make(map[string][]map[string]any),
		indexes:     make(map[string][]string),
	}
	s.wg.Add(1)
	go s.accept()
	return s, nil
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Close() {
	s.ln.Close()
	s.wg.Wait()
}

// Docs returns a copy of a collection.
func (s *Server) Docs(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.collections[collection]...)
}

// FailNext makes the next command answer with msg as its error.
func (s *Server) FailNext(msg string) {
	s.FailNth(1, msg)
}

// FailNth makes the n-th command from now answer with msg as its error.
func (s *Server) FailNth(n int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failIn = n
	s.failMsg = msg
}

func (s *Server) Indexes(collection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.indexes[collection]...)
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(conn, lenBuf); err != nil {
			return
		}
		payload := make([]byte, binary.LittleEndian.Uint32(lenBuf))
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		var req map[string]any
		var resp map[string]any
		if err := json.Unmarshal(payload, &req); err != nil {
			resp = map[string]any{"ok": false, "error": err.Error()}
		} else {
			resp = s.handle(req)
		}
		out, _ := json.Marshal(resp)
		frame := make([]byte, 4+len(out))
		binary.LittleEndian.PutUint32(frame, uint32(len(out)))
		copy(frame[4:], out)
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

func (s *Server) handle(req map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIn > 0 {
		s.failIn--
		if s.failIn == 0 {
			return map[string]any{"ok": false, "error": s.failMsg}
		}
	}

	coll, _ := req["collection"].(string)
	query, _ := req["query"].(map[string]any)
	switch req["cmd"] {
	case "ping":
		return ok("pong")
	case "insert":
		doc, _ := req["doc"].(map[string]any)
		s.collections[coll] = append(s.collections[coll], doc)
		return ok(map[string]any{"id": len(s.collections[coll])})
	case "find":
		var out []map[string]any
		for _, d := range s.collections[coll] {
			if matches(d, query) {
				out = append(out, d)
			}
		}
		if out == nil {
			out = []map[string]any{}
		}
		return ok(out)
	case "count":
		n := 0
		for _, d := range s.collections[coll] {
			if matches(d, query) {
				n++
			}
		}
		return ok(map[string]any{"count": n})
	case "delete":
		kept := s.collections[coll][:0]
		deleted := 0
		for _, d := range s.collections[coll] {
			if matches(d, query) {
				deleted++
				continue
			}
			kept = append(kept, d)
		}
		s.collections[coll] = kept
		return ok(map[string]any{"deleted": deleted})
	case "create_index":
		field, _ := req["field"].(string)
		s.indexes[coll] = append(s.indexes[coll], field)
		return ok("ok")
	}
	return map[string]any{"ok": false, "error": "unknown command"}
}

func ok(data any) map[string]any {
	return map[string]any{"ok": true, "data": data}
}

func matches(doc, query map[string]any) bool {
	for k, v := range query {
		if doc[k] != v {
			return false
		}
	}
	return true
}
