package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/game"
)

// AnswerStrategy picks an answer slot for a question.
type AnswerStrategy interface {
	Choose(q domain.Question) int
}

// RandomStrategy answers uniformly at random.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomStrategy(seed int64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomStrategy) Choose(q domain.Question) int {
	if len(q.Answers) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(len(q.Answers))
}

// Autoplayer drives a signed-in Client as a headless player: it joins every lobby it sees
// and answers each active question after a random think time.
type Autoplayer struct {
	client   *Client
	strategy AnswerStrategy
	clock    clockwork.Clock
	maxThink time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewAutoplayer(client *Client, strategy AnswerStrategy, maxThink time.Duration) *Autoplayer {
	return &Autoplayer{
		client:   client,
		strategy: strategy,
		clock:    client.clock,
		maxThink: maxThink,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run reacts to the client's views until ctx is done. The client itself must be running.
func (a *Autoplayer) Run(ctx context.Context) error {
	views, cancel := a.client.Watch()
	defer cancel()

	answered := -1
	joinSent := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			if v.CurrentUser == nil || !v.InSession() {
				answered = -1
				joinSent = false
				continue
			}
			if v.SessionPhase == domain.PhaseLobby {
				answered = -1
			}
			me, joined := v.Me()
			if !joined {
				if v.SessionPhase == domain.PhaseLobby && !joinSent {
					joinSent = true
					a.do(ctx, game.Join{})
				}
				continue
			}
			if v.SessionPhase != domain.PhaseQuestionActive || me.HasAnswered || answered == v.CurrentQuestionIndex {
				continue
			}
			question, ok := v.CurrentQuestion()
			if !ok {
				continue
			}
			answered = v.CurrentQuestionIndex
			go a.answerLater(ctx, question)
		}
	}
}

func (a *Autoplayer) answerLater(ctx context.Context, q domain.Question) {
	select {
	case <-a.clock.After(a.thinkTime(q)):
	case <-ctx.Done():
		return
	}
	choice := a.strategy.Choose(q)
	if err := a.client.Answer(ctx, choice); err != nil && !errors.Is(err, domain.ErrIgnoredIntent) {
		log.Warn().Err(err).Int("answer", choice).Msg("autoplayer answer failed")
	}
}

// thinkTime stays inside the question's time limit.
func (a *Autoplayer) thinkTime(q domain.Question) time.Duration {
	limit := a.maxThink
	if q.TimeLimit > 0 {
		if ql := time.Duration(q.TimeLimit) * time.Second; ql < limit {
			limit = ql
		}
	}
	if limit <= 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return time.Duration(a.rng.Int63n(int64(limit)))
}

func (a *Autoplayer) do(ctx context.Context, ev game.Event) {
	if err := a.client.Dispatch(ctx, ev); err != nil && !errors.Is(err, domain.ErrIgnoredIntent) {
		log.Warn().Err(err).Str("event", game.EventName(ev)).Msg("autoplayer action failed")
	}
}
