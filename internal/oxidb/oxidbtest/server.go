// Package oxidbtest runs an in-process server speaking the oxidb framed
// protocol, backed by in-memory buckets. It covers the blob commands only.
package oxidbtest

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"
)

type Server struct {
	ln net.Listener

	mu      sync.Mutex
	buckets map[string]map[string][]byte
	failNext string
	conns    []net.Conn
	wg       sync.WaitGroup
}

// Start listens on a random local port and stops when the test ends.
func Start(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("oxidbtest: listen: %v", err)
	}
	s := &Server{ln: ln, buckets: make(map[string]map[string][]byte)}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Addr returns host and port of the listener.
func (s *Server) Addr() (string, int) {
	a := s.ln.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

// FailNext makes the next request fail with msg.
func (s *Server) FailNext(msg string) {
	s.mu.Lock()
	s.failNext = msg
	s.mu.Unlock()
}

// Object returns the stored bytes of bucket/key.
func (s *Server) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.buckets[bucket][key]
	return v, ok
}

func (s *Server) Close() {
	s.ln.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
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
		resp := map[string]any{"ok": false, "error": "bad request"}
		if err := json.Unmarshal(payload, &req); err == nil {
			resp = s.dispatch(req)
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

func (s *Server) dispatch(req map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != "" {
		msg := s.failNext
		s.failNext = ""
		return fail(msg)
	}

	bucket, _ := req["bucket"].(string)
	key, _ := req["key"].(string)

	switch req["cmd"] {
	case "ping":
		return ok("pong")
	case "create_bucket":
		if _, exists := s.buckets[bucket]; exists {
			return fail("bucket already exists: " + bucket)
		}
		s.buckets[bucket] = make(map[string][]byte)
		return ok(nil)
	case "put_object":
		b, exists := s.buckets[bucket]
		if !exists {
			return fail("bucket not found: " + bucket)
		}
		enc, _ := req["data"].(string)
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return fail("invalid base64")
		}
		b[key] = data
		return ok(map[string]any{"key": key, "size": len(data)})
	case "get_object":
		data, exists := s.buckets[bucket][key]
		if !exists {
			return fail("object not found: " + key)
		}
		return ok(map[string]any{
			"content":  base64.StdEncoding.EncodeToString(data),
			"metadata": map[string]any{"size": len(data)},
		})
	case "delete_object":
		if _, exists := s.buckets[bucket][key]; !exists {
			return fail("object not found: " + key)
		}
		delete(s.buckets[bucket], key)
		return ok(nil)
	}
	return fail("unknown command")
}

func ok(data any) map[string]any {
	return map[string]any{"ok": true, "data": data}
}

func fail(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}
