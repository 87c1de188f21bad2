package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/game"
)

// timerKey identifies the countdown a view calls for. The zero key means none.
type timerKey struct {
	phase    domain.Phase
	question int
}

// hostTimers runs at most one countdown, and only while the client is the host.
// Every view change is observed; a changed key cancels the old countdown before
// the new one starts. Each key fires at most once.
type hostTimers struct {
	clock        clockwork.Clock
	introDelay   time.Duration
	resultsDelay time.Duration
	fire         func(game.Event)

	mu      sync.Mutex
	current timerKey
	timer   clockwork.Timer
	stop    chan struct{}
}

func newHostTimers(clock clockwork.Clock, introDelay, resultsDelay time.Duration, fire func(game.Event)) *hostTimers {
	return &hostTimers{
		clock:        clock,
		introDelay:   introDelay,
		resultsDelay: resultsDelay,
		fire:         fire,
	}
}

// Observe schedules the countdown the view calls for, replacing any other.
func (h *hostTimers) Observe(v game.View) {
	key, delay, ev := h.plan(v)

	h.mu.Lock()
	defer h.mu.Unlock()
	if key == h.current {
		return
	}
	h.cancelLocked()
	h.current = key
	if key == (timerKey{}) {
		return
	}

	timer := h.clock.NewTimer(delay)
	stop := make(chan struct{})
	h.timer = timer
	h.stop = stop

	go func() {
		select {
		case <-timer.Chan():
			h.mu.Lock()
			live := h.current == key && h.stop == stop
			if live {
				h.timer = nil
				h.stop = nil
			}
			h.mu.Unlock()
			if !live {
				return
			}
			log.Debug().Str("phase", string(key.phase)).Int("question", key.question).Msg("host timer fired")
			h.fire(ev)
		case <-stop:
		}
	}()

	log.Debug().
		Str("phase", string(key.phase)).
		Int("question", key.question).
		Dur("duration", delay).
		Msg("scheduled host timer")
}

// plan maps a view to its countdown: intro → active, active → results (by the
// question's time limit), results → leaderboard. Non-hosts get none.
func (h *hostTimers) plan(v game.View) (timerKey, time.Duration, game.Event) {
	if !v.IsHost() || !v.InSession() {
		return timerKey{}, 0, nil
	}
	key := timerKey{phase: v.SessionPhase, question: v.CurrentQuestionIndex}
	switch v.SessionPhase {
	case domain.PhaseQuestionIntro:
		return key, h.introDelay, game.SetPhase{Phase: domain.PhaseQuestionActive}
	case domain.PhaseQuestionActive:
		question, ok := v.CurrentQuestion()
		if !ok {
			return timerKey{}, 0, nil
		}
		return key, time.Duration(question.TimeLimit) * time.Second, game.ShowResults{QuestionIndex: v.CurrentQuestionIndex}
	case domain.PhaseQuestionResults:
		return key, h.resultsDelay, game.SetPhase{Phase: domain.PhaseLeaderboard}
	}
	return timerKey{}, 0, nil
}

// Stop cancels any pending countdown.
func (h *hostTimers) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
	h.current = timerKey{}
}

func (h *hostTimers) cancelLocked() {
	if h.timer == nil {
		return
	}
	stopAndDrainTimer(h.timer)
	close(h.stop)
	h.timer = nil
	h.stop = nil
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
