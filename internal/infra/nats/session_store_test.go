package nats

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/game"
)

const path = "active-game"

var host = domain.User{ID: "host", Name: "Host", IsAdmin: true}

func TestSessionStoreAgainstJetStream(t *testing.T) {
	ctx := context.Background()
	url := startNATS(t, ctx)

	store, closeFn, err := Connect(ctx, url, "quiz-sessions")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer closeFn()

	updates, cancel, err := store.Subscribe(ctx, path)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if rec := recv(t, updates); rec != nil {
		t.Fatalf("expected absent document, got %+v", rec)
	}

	if err := store.Write(ctx, path, game.NewSessionRecord(sampleQuiz(), host)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec := recv(t, updates); rec == nil || rec.Phase != domain.PhaseLobby {
		t.Fatalf("expected lobby, got %+v", rec)
	}

	committed, err := store.Transact(ctx, path, game.AddPlayer(domain.User{ID: "kid"}))
	if err != nil || !committed {
		t.Fatalf("join: %v %v", committed, err)
	}
	if rec := recv(t, updates); len(rec.Players) != 2 {
		t.Fatalf("expected 2 players, got %+v", rec.Players)
	}

	if err := store.Patch(ctx, path, game.StartPatch()); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if rec := recv(t, updates); rec.Phase != domain.PhaseQuestionIntro || len(rec.Players) != 2 {
		t.Fatalf("unexpected patched document %+v", rec)
	}
	if err := store.Patch(ctx, path, game.PhasePatch(domain.PhaseQuestionActive)); err != nil {
		t.Fatalf("activate: %v", err)
	}
	recv(t, updates)

	var wg sync.WaitGroup
	for _, id := range []string{"host", "kid", "host", "kid"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sub := game.Submission{PlayerID: id, AnswerIndex: 1}
			if _, err := store.Transact(ctx, path, game.AnswerTx(sub)); err != nil {
				t.Errorf("submit %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	rec, _, err := store.get(ctx, path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Phase != domain.PhaseQuestionResults || len(rec.Answers) != 2 {
		t.Fatalf("expected results with two answers, got %+v", rec)
	}

	if err := store.Write(ctx, path, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case rec := <-updates:
			if rec == nil {
				return
			}
		case <-deadline:
			t.Fatalf("reset never observed")
		}
	}
}

func startNATS(t *testing.T, ctx context.Context) string {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
	req := tc.ContainerRequest{
		Image:        "nats:2.10-alpine",
		Cmd:          []string{"-js"},
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start nats: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("nats host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4222/tcp")
	if err != nil {
		t.Fatalf("nats port: %v", err)
	}
	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func recv(t *testing.T, updates <-chan *domain.SessionRecord) *domain.SessionRecord {
	t.Helper()
	select {
	case rec := <-updates:
		return rec
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return nil
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Maths",
		Questions: []domain.Question{{
			Question:  "What is 2 + 2?",
			Answers:   []domain.Answer{{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"}, {Text: "6"}},
			TimeLimit: 15,
		}},
	}
}
