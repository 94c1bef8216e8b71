package stream

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// sendBuffer is the per-client queue depth. A client that falls this far
// behind starts losing frames instead of stalling the simulation.
const sendBuffer = 4

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server broadcasts encoded frames to connected websocket clients. Slow
// clients drop frames rather than applying backpressure to the tick loop.
type Server struct {
	addr string

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	httpServer *http.Server
}

// NewServer creates a frame server bound to addr (e.g. ":8080").
func NewServer(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Start begins listening in a background goroutine. Errors from the
// listener are logged, not returned; the simulation keeps running without
// the stream.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		slog.Info("stream server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("stream server", "err", err)
		}
	}()
}

// Close shuts the listener and disconnects all clients.
func (s *Server) Close() error {
	s.mu.Lock()
	for conn, ch := range s.clients {
		close(ch)
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	ch := make(chan []byte, sendBuffer)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	slog.Info("stream client connected", "remote", conn.RemoteAddr())

	go s.writePump(conn, ch)

	// Drain the read side so pings and close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	if ch, ok := s.clients[conn]; ok {
		close(ch)
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	conn.Close()

	slog.Info("stream client disconnected", "remote", conn.RemoteAddr())
}

func (s *Server) writePump(conn *websocket.Conn, ch <-chan []byte) {
	for frame := range ch {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			slog.Warn("stream write failed", "err", err)
			return
		}
	}
}

// Broadcast queues a frame to every connected client, dropping it for
// clients whose queue is full.
func (s *Server) Broadcast(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.clients {
		select {
		case ch <- frame:
		default:
			// client is behind; skip this frame for it
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
