package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"family-quiz-sync/internal/app"
	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/game"
	"family-quiz-sync/internal/infra/memory"
)

func TestWebSocketHostAndJoin(t *testing.T) {
	server := newTestServer(t)

	mum := dial(t, server, "userId=mum&passcode=1234")
	readUntil(t, mum, func(v game.View) bool { return v.Phase == domain.PhaseAdminDashboard })

	send(t, mum, "host", map[string]any{"quizId": "quiz-1"})
	readUntil(t, mum, func(v game.View) bool { return v.Phase == domain.PhaseLobby && v.Quiz != nil })

	kid := dial(t, server, "userId=kid")
	readUntil(t, kid, func(v game.View) bool { return v.SessionPhase == domain.PhaseLobby })

	send(t, kid, "join", nil)
	readUntil(t, kid, func(v game.View) bool {
		_, joined := v.Me()
		return joined && v.Phase == domain.PhaseLobby
	})
	readUntil(t, mum, func(v game.View) bool { return len(v.Players) == 2 })
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	server := newTestServer(t)

	mum := dial(t, server, "userId=mum&passcode=1234")
	readUntil(t, mum, func(v game.View) bool { return v.Phase == domain.PhaseAdminDashboard })

	send(t, mum, "dance", nil)
	if msg := readError(t, mum); msg != errUnsupported.Error() {
		t.Fatalf("expected unsupported error, got %q", msg)
	}

	send(t, mum, "answer", map[string]any{})
	if msg := readError(t, mum); msg != errBadPayload.Error() {
		t.Fatalf("expected bad payload error, got %q", msg)
	}

	send(t, mum, "host", map[string]any{"quizId": "missing"})
	if msg := readError(t, mum); !strings.Contains(msg, domain.ErrQuizNotFound.Error()) {
		t.Fatalf("expected quiz not found, got %q", msg)
	}
}

func TestWebSocketAuthentication(t *testing.T) {
	server := newTestServer(t)
	cases := map[string]int{
		"":                        http.StatusBadRequest,
		"userId=nobody":           http.StatusNotFound,
		"userId=mum&passcode=bad": http.StatusUnauthorized,
	}
	for query, status := range cases {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, query), nil)
		if err == nil {
			t.Fatalf("%q: expected dial failure", query)
		}
		if resp == nil || resp.StatusCode != status {
			t.Fatalf("%q: expected status %d, got %+v", query, status, resp)
		}
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewSessionStore()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	roster := domain.NewRoster([]domain.RosterEntry{
		{User: domain.User{ID: "mum", Name: "Mum", IsAdmin: true}, Passcode: "1234"},
		{User: domain.User{ID: "kid", Name: "Kid"}},
	})
	ws := NewWSHandler(store, quizzes, roster, app.WithDelays(time.Hour, time.Hour))
	server := httptest.NewServer(NewRouter(ws, quizzes, roster, "http://quiz.local/"))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, query), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) (string, game.View, string) {
	t.Helper()
	var head struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&head); err != nil {
		t.Fatalf("read json: %v", err)
	}
	var view game.View
	var errMsg errorPayload
	switch head.Type {
	case "view":
		if err := json.Unmarshal(head.Payload, &view); err != nil {
			t.Fatalf("decode view: %v", err)
		}
	case "error":
		if err := json.Unmarshal(head.Payload, &errMsg); err != nil {
			t.Fatalf("decode error: %v", err)
		}
	}
	return head.Type, view, errMsg.Message
}

func readUntil(t *testing.T, conn *websocket.Conn, ok func(game.View) bool) game.View {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, view, msg := readMessage(t, conn)
		if typ == "error" {
			t.Fatalf("unexpected error message: %s", msg)
		}
		if typ == "view" && ok(view) {
			return view
		}
	}
	t.Fatalf("view condition never met")
	return game.View{}
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, _, msg := readMessage(t, conn)
		if typ == "error" {
			return msg
		}
	}
	t.Fatalf("no error message received")
	return ""
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Kitchen table",
			Questions: []domain.Question{{
				Question:  "What is 2 + 2?",
				TimeLimit: 10,
				Answers: []domain.Answer{
					{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"}, {Text: "22"},
				},
			}},
		},
	}
}
