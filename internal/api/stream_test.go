package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cyber-intake/internal/flow"
)

func dialStream(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + sessionID + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) VerdictEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event VerdictEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func TestStreamBroadcastsVerdicts(t *testing.T) {
	_, router := newTestServer(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	id := createSession(t, router)
	conn := dialStream(t, srv, id)
	defer conn.Close()

	base := "/api/sessions/" + id
	doJSON(t, router, http.MethodPost, base+"/ticket", TicketRequest{Key: "CS-55"})
	doJSON(t, router, http.MethodPost, base+"/ticket/confirm", nil)

	event := readEvent(t, conn)
	if event.Type != "verdict" || event.SessionID != id {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}

	event = readEvent(t, conn)
	if event.State != flow.StateCriteriaPending {
		t.Fatalf("state after confirm = %q", event.State)
	}
}

func TestStreamReplaysLastVerdict(t *testing.T) {
	_, router := newTestServer(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	id := createSession(t, router)
	base := "/api/sessions/" + id
	doJSON(t, router, http.MethodPost, base+"/ticket", TicketRequest{Key: "CS-56"})
	doJSON(t, router, http.MethodPost, base+"/ticket/confirm", nil)

	// A client connecting after the fact still gets the latest verdict.
	conn := dialStream(t, srv, id)
	defer conn.Close()

	event := readEvent(t, conn)
	if event.SessionID != id || event.State != flow.StateCriteriaPending {
		t.Fatalf("unexpected replayed event: %+v", event)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	_, router := newTestServer(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/nope/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake failure for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
}

func TestNotifierForget(t *testing.T) {
	n := NewVerdictNotifier()
	n.Broadcast(VerdictEvent{Type: "verdict", SessionID: "s1", State: flow.StateCriteriaPending})
	if _, ok := n.last["s1"]; !ok {
		t.Fatal("broadcast should cache the last event")
	}
	n.Forget("s1")
	if _, ok := n.last["s1"]; ok {
		t.Fatal("forget should drop the cached event")
	}
}
