package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/app"
	"family-quiz-sync/internal/config"
	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/infra/memory"
	infranats "family-quiz-sync/internal/infra/nats"
	pgloader "family-quiz-sync/internal/infra/postgres"
	infraredis "family-quiz-sync/internal/infra/redis"
)

// runtime is the set of shared dependencies every command builds from config.
type runtime struct {
	store   app.SessionStore
	quizzes app.QuizRepository
	roster  *domain.Roster
	options []app.Option
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{roster: domain.NewRoster(cfg.Users)}

	var redisClient *redis.Client
	if cfg.Store.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("%w: redis %s: %w", domain.ErrStoreUnavailable, cfg.Redis.Addr, err)
		}
	}

	switch cfg.Store.Backend {
	case "memory":
		rt.store = memory.NewSessionStore()
	case "redis":
		rt.store = infraredis.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	case "nats":
		store, closeFn, err := infranats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Bucket)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		rt.store = store
		rt.closers = append(rt.closers, closeFn)
	default:
		rt.Close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		rt.quizzes = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		rt.quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	rt.options = []app.Option{
		app.WithPath(cfg.Store.Path),
		app.WithQuizzes(rt.quizzes),
		app.WithDelays(
			config.TTLDuration(cfg.Game.IntroDelay, 3*time.Second),
			config.TTLDuration(cfg.Game.ResultsDelay, 7*time.Second),
		),
	}

	log.Info().
		Str("backend", cfg.Store.Backend).
		Str("path", cfg.Store.Path).
		Bool("postgres", cfg.Postgres.URL != "").
		Int("users", len(cfg.Users)).
		Msg("runtime ready")
	return rt, nil
}

// sampleQuizzes is the built-in library used when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"family-starter": {
			ID:    "family-starter",
			Title: "Family Starter",
			Questions: []domain.Question{
				{
					Question: "How many legs does a spider have?",
					Answers: []domain.Answer{
						{Text: "6"}, {Text: "8", IsCorrect: true}, {Text: "10"}, {Text: "12"},
					},
					TimeLimit: 20,
				},
				{
					Question: "Which planet is known as the Red Planet?",
					Answers: []domain.Answer{
						{Text: "Venus"}, {Text: "Jupiter"}, {Text: "Mars", IsCorrect: true}, {Text: "Mercury"},
					},
					TimeLimit: 20,
				},
				{
					Question: "What do bees make?",
					Answers: []domain.Answer{
						{Text: "Honey", IsCorrect: true}, {Text: "Milk"}, {Text: "Silk"}, {Text: "Wax paper"},
					},
					TimeLimit: 15,
				},
			},
		},
	}
}
