package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsSendBuffer  = 256
	wsWriteWindow = 10 * time.Second
)

// wsClient is one live feed subscriber with a buffered send channel.
// Slow clients are dropped rather than allowed to stall the feed.
type wsClient struct {
	conn *websocket.Conn
	send chan string
}

// handleWebSocket upgrades the connection and streams every accepted
// sentence to the client until it disconnects. Browser origins are
// checked against the same allow list as the CORS layer.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan string, wsSendBuffer)}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()
	s.log.Debugw("websocket client connected", "remote", r.RemoteAddr)

	go s.writePump(client)
	s.readPump(client)
}

// readPump discards inbound frames and tears the client down on error.
func (s *Server) readPump(client *wsClient) {
	defer s.dropClient(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the client's send channel onto the socket.
func (s *Server) writePump(client *wsClient) {
	defer s.dropClient(client)
	for sentence := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(wsWriteWindow))
		if err := client.conn.WriteMessage(websocket.TextMessage, []byte(sentence)); err != nil {
			return
		}
	}
}

// broadcast fans an accepted sentence out to every connected client,
// dropping clients whose send buffers are full.
func (s *Server) broadcast(sentence string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		select {
		case client.send <- sentence:
		default:
			delete(s.clients, client)
			close(client.send)
			client.conn.Close()
		}
	}
}

func (s *Server) dropClient(client *wsClient) {
	s.mu.Lock()
	if s.clients[client] {
		delete(s.clients, client)
		close(client.send)
	}
	s.mu.Unlock()
	client.conn.Close()
}
