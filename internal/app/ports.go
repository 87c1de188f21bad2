package app

import (
	"context"

	"family-quiz-sync/internal/domain"
)

// DefaultPath is the store location of the single active session document.
const DefaultPath = "active-game"

// SessionStore abstracts the shared document store (in-memory, Redis, NATS KV).
type SessionStore interface {
	// Subscribe streams every committed snapshot of the document at path, starting with the
	// current one. A nil record means the document is absent. The caller must invoke cancel.
	Subscribe(ctx context.Context, path string) (<-chan *domain.SessionRecord, func(), error)
	// Write overwrites the whole document; a nil record removes it.
	Write(ctx context.Context, path string, rec *domain.SessionRecord) error
	// Patch overwrites only the named top-level fields.
	Patch(ctx context.Context, path string, p domain.Patch) error
	// Transact runs m against the latest committed document and commits its result atomically,
	// re-running m on conflict. It reports false when m aborted.
	Transact(ctx context.Context, path string, m domain.Mutation) (bool, error)
}

// QuizRepository loads saved quizzes (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}
