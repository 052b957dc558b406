package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"cyber-intake/internal/flow"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// VerdictEvent describes websocket payloads emitted whenever a session's
// answers change and its verdict is recomputed.
type VerdictEvent struct {
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	State     flow.State        `json:"state"`
	Criterion *CriterionEvalDTO `json:"criterion,omitempty"`
	Framework *FrameworkEvalDTO `json:"framework,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

// VerdictNotifier tracks active websocket clients and pushes verdict events
// to the ones subscribed to the originating session.
type VerdictNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    map[string]VerdictEvent
}

// NewVerdictNotifier constructs a notifier instance.
func NewVerdictNotifier() *VerdictNotifier {
	return &VerdictNotifier{
		clients: make(map[*wsClient]struct{}),
		last:    make(map[string]VerdictEvent),
	}
}

// Register attaches a websocket connection subscribed to one session and
// immediately replays the session's last verdict if one exists.
func (n *VerdictNotifier) Register(conn *websocket.Conn, sessionID string) *wsClient {
	client := &wsClient{conn: conn, sessionID: sessionID}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last, ok := n.last[sessionID]
	n.mu.Unlock()

	if ok {
		_ = client.writeJSON(last)
	}
	return client
}

// Unregister removes the client and closes the socket.
func (n *VerdictNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the event to every client subscribed to its session.
func (n *VerdictNotifier) Broadcast(event VerdictEvent) {
	event.Timestamp = timeNow().UTC()

	n.mu.Lock()
	n.last[event.SessionID] = event
	for client := range n.clients {
		if client.sessionID != event.SessionID {
			continue
		}
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// Forget drops the cached verdict for a removed session.
func (n *VerdictNotifier) Forget(sessionID string) {
	n.mu.Lock()
	delete(n.last, sessionID)
	n.mu.Unlock()
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

// handleStream upgrades the connection and keeps it registered until the
// peer goes away.
func (s *Server) handleStream(c *gin.Context) {
	id := c.Param("id")
	if _, _, ok := s.lookupSession(c); !ok {
		return
	}

	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn, id)
	logrus.WithFields(logrus.Fields{
		"session": id,
		"remote":  conn.RemoteAddr().String(),
	}).Info("verdict websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("session", id).Info("verdict websocket closed")
			} else {
				logrus.WithError(err).Warn("verdict websocket unexpected close")
			}
			break
		}
	}
}
