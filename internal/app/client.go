package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/game"
)

const (
	defaultIntroDelay   = 3 * time.Second
	defaultResultsDelay = 7 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the real clock, typically with a clockwork.FakeClock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithPath points the client at another session document.
func WithPath(path string) Option {
	return func(c *Client) { c.path = path }
}

// WithDelays sets how long the host shows the question intro and the results.
func WithDelays(intro, results time.Duration) Option {
	return func(c *Client) {
		c.introDelay = intro
		c.resultsDelay = results
	}
}

// WithQuizzes gives the client access to the quiz library for Host.
func WithQuizzes(quizzes QuizRepository) Option {
	return func(c *Client) { c.quizzes = quizzes }
}

// Client is one participant's runtime: it owns a view, reduces events into it one at a time,
// runs the resulting store effects, and drives the countdowns while it is the host.
type Client struct {
	store        SessionStore
	quizzes      QuizRepository
	clock        clockwork.Clock
	path         string
	introDelay   time.Duration
	resultsDelay time.Duration
	timers       *hostTimers

	mu          sync.Mutex
	view        game.View
	baseCtx     context.Context
	activeIndex int
	activeSince time.Time
	watchers    map[chan game.View]struct{}
}

func NewClient(store SessionStore, opts ...Option) *Client {
	c := &Client{
		store:        store,
		clock:        clockwork.NewRealClock(),
		path:         DefaultPath,
		introDelay:   defaultIntroDelay,
		resultsDelay: defaultResultsDelay,
		view:         game.Initial(),
		baseCtx:      context.Background(),
		activeIndex:  -1,
		watchers:     make(map[chan game.View]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.timers = newHostTimers(c.clock, c.introDelay, c.resultsDelay, c.fire)
	return c
}

// Run subscribes to the session document and reconciles every snapshot until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	updates, cancel, err := c.store.Subscribe(ctx, c.path)
	if err != nil {
		return fmt.Errorf("%w: subscribe: %w", domain.ErrStoreUnavailable, err)
	}
	defer cancel()
	defer c.timers.Stop()

	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: subscription closed", domain.ErrStoreUnavailable)
			}
			if err := c.Dispatch(ctx, game.Snapshot{Record: rec}); err != nil {
				log.Warn().Err(err).Str("path", c.path).Msg("snapshot not applied")
			}
		}
	}
}

// Dispatch applies one event and runs its store effects. Ignored intents are reported through
// domain.ErrIgnoredIntent; corrupt snapshots are logged and swallowed.
func (c *Client) Dispatch(ctx context.Context, ev game.Event) error {
	c.mu.Lock()
	next, effects, err := game.Reduce(c.view, ev)
	c.view = next
	c.trackActiveLocked(next)
	c.broadcastLocked(next)
	c.timers.Observe(next)
	c.mu.Unlock()

	switch {
	case errors.Is(err, domain.ErrCorruptSnapshot):
		log.Error().Err(err).Str("path", c.path).Msg("rejected session snapshot")
		return nil
	case errors.Is(err, domain.ErrIgnoredIntent):
		log.Debug().Err(err).Str("phase", string(next.SessionPhase)).Msg("intent ignored")
		return err
	case err != nil:
		return err
	}

	for _, eff := range effects {
		if err := c.run(ctx, eff); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, eff.Name, err)
		}
	}
	return nil
}

func (c *Client) run(ctx context.Context, eff game.Effect) error {
	switch eff.Kind {
	case game.EffectWrite:
		return c.store.Write(ctx, c.path, eff.Record)
	case game.EffectPatch:
		return c.store.Patch(ctx, c.path, eff.Patch)
	case game.EffectTransact:
		committed, err := c.store.Transact(ctx, c.path, eff.Mutation)
		if err != nil {
			return err
		}
		log.Debug().Str("effect", eff.Name).Bool("committed", committed).Msg("transaction finished")
		return nil
	}
	return fmt.Errorf("unknown effect kind %d", eff.Kind)
}

// fire delivers a host countdown event.
func (c *Client) fire(ev game.Event) {
	c.mu.Lock()
	ctx := c.baseCtx
	c.mu.Unlock()
	if err := c.Dispatch(ctx, ev); err != nil && !errors.Is(err, domain.ErrIgnoredIntent) {
		log.Error().Err(err).Str("event", game.EventName(ev)).Msg("host timer action failed")
	}
}

// trackActiveLocked records when this client first saw the current question become active.
func (c *Client) trackActiveLocked(v game.View) {
	if v.SessionPhase != domain.PhaseQuestionActive {
		c.activeIndex = -1
		return
	}
	if c.activeIndex != v.CurrentQuestionIndex {
		c.activeIndex = v.CurrentQuestionIndex
		c.activeSince = c.clock.Now()
	}
}

// View returns the current view.
func (c *Client) View() game.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Watch returns a channel that receives every applied view, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (c *Client) Watch() (<-chan game.View, func()) {
	ch := make(chan game.View, 8)

	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	ch <- c.view
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.watchers[ch]; ok {
			delete(c.watchers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Client) broadcastLocked(v game.View) {
	for ch := range c.watchers {
		select {
		case ch <- v:
		default:
			// Slow watchers only need the latest view.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Login signs a roster user in on this client.
func (c *Client) Login(ctx context.Context, user domain.User) error {
	return c.Dispatch(ctx, game.Login{User: user})
}

// Host loads a saved quiz and opens a session for it with the signed-in admin as host.
func (c *Client) Host(ctx context.Context, quizID string) error {
	if c.quizzes == nil {
		return fmt.Errorf("%w: no quiz library configured", domain.ErrQuizNotFound)
	}
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	return c.Dispatch(ctx, game.CreateSession{Quiz: quiz})
}

// Answer submits an answer to the active question, timed from when this client saw it open.
func (c *Client) Answer(ctx context.Context, answerIndex int) error {
	c.mu.Lock()
	var taken float64
	if c.activeIndex >= 0 {
		taken = c.clock.Since(c.activeSince).Seconds()
	}
	c.mu.Unlock()
	return c.Dispatch(ctx, game.SubmitAnswer{AnswerIndex: answerIndex, TimeTaken: taken})
}
