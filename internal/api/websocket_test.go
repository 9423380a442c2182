package api

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/codxp/server/internal/testutil"
	"github.com/codxp/server/internal/user"
	"github.com/gorilla/websocket"
)

func dialWebSocket(t *testing.T, serverURL, token string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(serverURL, "http://", "ws://", 1) + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing %s failed: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) TokenUpdate {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update TokenUpdate
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("reading update failed: %v", err)
	}
	return update
}

func TestWebSocket_RejectsMissingOrBadToken(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.helper.Handler)
	defer ts.Close()

	for _, path := range []string{"/api/ws", "/api/ws?token=garbage"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusUnauthorized)
		}
	}
}

func TestWebSocket_InitialStateAndUpdates(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.helper.Handler)
	defer ts.Close()

	account := testutil.NewTestUser()
	token := srv.register(t, account.Username, account.Password)
	conn := dialWebSocket(t, ts.URL, token)

	// The current token set arrives right after the upgrade.
	initial := readUpdate(t, conn)
	if initial.Type != "tokens" {
		t.Errorf("initial message type = %q, want %q", initial.Type, "tokens")
	}
	if !reflect.DeepEqual(initial.Tokens, user.ZeroTokens()) {
		t.Errorf("initial tokens = %v, want zeroed set", initial.Tokens)
	}

	updated := user.TokenSet{
		"regular":    {1, 0, 0, 0},
		"weapon":     {0, 0, 0, 2},
		"battlepass": {0, 0, 0, 0},
	}
	srv.hub.NotifyTokens(account.Username, updated)

	pushed := readUpdate(t, conn)
	if !reflect.DeepEqual(pushed.Tokens, updated) {
		t.Errorf("pushed tokens = %v, want %v", pushed.Tokens, updated)
	}
}

func TestWebSocket_UpdatesScopedToUser(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.helper.Handler)
	defer ts.Close()

	aliceToken := srv.register(t, "alice", "hunter2")
	bobToken := srv.register(t, "bob", "hunter2")

	aliceConn := dialWebSocket(t, ts.URL, aliceToken)
	bobConn := dialWebSocket(t, ts.URL, bobToken)
	readUpdate(t, aliceConn)
	readUpdate(t, bobConn)

	srv.hub.NotifyTokens("alice", user.ZeroTokens())
	readUpdate(t, aliceConn)

	// Bob gets nothing for Alice's change.
	_ = bobConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var update TokenUpdate
	if err := bobConn.ReadJSON(&update); err == nil {
		t.Errorf("bob received alice's update: %v", update)
	}
}
