package app

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/game"
	"family-quiz-sync/internal/infra/memory"
)

type correctStrategy struct{}

func (correctStrategy) Choose(q domain.Question) int {
	for i, a := range q.Answers {
		if a.IsCorrect {
			return i
		}
	}
	return 0
}

func TestAutoplayerJoinsAndAnswers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := memory.NewSessionStore()
	clock := clockwork.NewFakeClock()

	host := startClient(ctx, t, store, clock, mum)
	botClient := startClient(ctx, t, store, clock, kid)
	bot := NewAutoplayer(botClient, correctStrategy{}, 2*time.Second)
	go func() { _ = bot.Run(ctx) }()

	if err := host.Host(ctx, "quiz-1"); err != nil {
		t.Fatalf("host: %v", err)
	}
	waitFor(t, host, "bot joined", func(v game.View) bool { return len(v.Players) == 2 })

	if err := host.Dispatch(ctx, game.StartGame{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, host, "intro", phaseIs(domain.PhaseQuestionIntro))
	advance(ctx, t, clock, introDelay)
	waitFor(t, host, "active", phaseIs(domain.PhaseQuestionActive))

	// Host countdown plus the bot's think time.
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := clock.BlockUntilContext(waitCtx, 2); err != nil {
		t.Fatalf("bot never started thinking: %v", err)
	}
	clock.Advance(2 * time.Second)

	v := waitFor(t, host, "bot answer", func(v game.View) bool { return len(v.Answers) == 1 })
	if !v.Answers[0].IsCorrect || v.Answers[0].PlayerID != kid.ID {
		t.Fatalf("unexpected bot answer %+v", v.Answers[0])
	}
}

func TestRandomStrategyStaysInRange(t *testing.T) {
	s := NewRandomStrategy(1)
	q := sampleQuiz().Questions[0]
	for i := 0; i < 50; i++ {
		if got := s.Choose(q); got < 0 || got >= len(q.Answers) {
			t.Fatalf("choice %d out of range", got)
		}
	}
}
