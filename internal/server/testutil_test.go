package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"tilegame/internal/game"
	"tilegame/internal/game/tile"
	"tilegame/internal/session"
	"tilegame/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

// anyWord accepts every word so games can be driven by whatever is dealt.
type anyWord struct{}

func (anyWord) IsValidWord(string) bool { return true }

// setupTestEnv serves a manager whose bag holds only A tiles, so every rack
// is predictable.
func setupTestEnv(t *testing.T, maxPlayers int) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := session.NewManager(session.Config{
		MaxPlayers: maxPlayers,
		Words:      anyWord{},
		Distribution: tile.Distribution{
			Letters: map[rune]tile.LetterSpec{'A': {Count: 50, Value: 1}},
		},
		Seed: 1,
	}, store)

	ts := httptest.NewServer(New(mgr, store, 5*time.Second))
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, mgr: mgr, store: store}
}

func timeoutCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// --- REST helpers ---

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON from %s, got %q", path, ct)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
}

func wsDial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(timeoutCtx(t), wsURL(ts), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// wsJoin dials, joins, and returns the connection with the first state read.
func wsJoin(t *testing.T, ts *httptest.Server, playerID, sessionID string) (*websocket.Conn, session.PrivateView) {
	t.Helper()
	conn := wsDial(t, ts)
	ctx := timeoutCtx(t)
	wsSend(ctx, t, conn, "join", joinPayload{PlayerID: playerID, DisplayName: strings.ToUpper(playerID), SessionID: sessionID})
	return conn, readState(ctx, t, conn)
}

func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg, err := encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

func readState(ctx context.Context, t *testing.T, conn *websocket.Conn) session.PrivateView {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var v session.PrivateView
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return v
}

func readRejected(ctx context.Context, t *testing.T, conn *websocket.Conn) game.Rejection {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "rejected" {
		t.Fatalf("expected rejected message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var rej game.Rejection
	if err := json.Unmarshal(msg.Payload, &rej); err != nil {
		t.Fatalf("unmarshal rejection: %v", err)
	}
	return rej
}

func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}

func placeAcross(row, col int, letters string) playPayload {
	var p playPayload
	for i, r := range letters {
		p.Placements = append(p.Placements, placementPayload{Letter: string(r), Row: row, Col: col + i})
	}
	return p
}
