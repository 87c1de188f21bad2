package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

func TestRouterEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/quizzes")
	if err != nil {
		t.Fatalf("quizzes: %v", err)
	}
	var quizzes []quizSummary
	if err := json.NewDecoder(resp.Body).Decode(&quizzes); err != nil {
		t.Fatalf("decode quizzes: %v", err)
	}
	resp.Body.Close()
	if len(quizzes) != 1 || quizzes[0].ID != "quiz-1" || quizzes[0].Questions != 1 {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}

	resp, err = http.Get(server.URL + "/api/users")
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	var raw []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	resp.Body.Close()
	if len(raw) != 2 {
		t.Fatalf("expected 2 users, got %d", len(raw))
	}
	for _, u := range raw {
		if _, leaked := u["passcode"]; leaked {
			t.Fatalf("passcode exposed: %+v", u)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/qr.png", nil)
	req.Header.Set("Origin", "http://elsewhere.test")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %q", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected cors header, got %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read qr: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("qr body is not a png")
	}
}
