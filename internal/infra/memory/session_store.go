package memory

import (
	"context"
	"sync"

	"family-quiz-sync/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. Transactions are
// optimistic like the networked stores: the body runs outside the lock against a
// snapshot and commits only if no other write landed meanwhile.
type SessionStore struct {
	mu   sync.Mutex
	docs map[string]*document
}

type document struct {
	version     uint64
	rec         *domain.SessionRecord
	subscribers map[chan *domain.SessionRecord]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{docs: make(map[string]*document)}
}

func (s *SessionStore) docLocked(path string) *document {
	doc, ok := s.docs[path]
	if !ok {
		doc = &document{subscribers: make(map[chan *domain.SessionRecord]struct{})}
		s.docs[path] = doc
	}
	return doc
}

// Subscribe delivers the current document and every later commit. Slow subscribers
// lose intermediate snapshots, never the latest one.
func (s *SessionStore) Subscribe(_ context.Context, path string) (<-chan *domain.SessionRecord, func(), error) {
	ch := make(chan *domain.SessionRecord, 8)

	s.mu.Lock()
	doc := s.docLocked(path)
	initial, err := domain.CloneRecord(doc.rec)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	// The initial snapshot goes in before any commit can reach the channel.
	ch <- initial
	doc.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := doc.subscribers[ch]; ok {
			delete(doc.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *SessionStore) Write(_ context.Context, path string, rec *domain.SessionRecord) error {
	clone, err := domain.CloneRecord(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(s.docLocked(path), clone)
}

func (s *SessionStore) Patch(_ context.Context, path string, p domain.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docLocked(path)
	next, err := domain.ApplyPatch(doc.rec, p)
	if err != nil {
		return err
	}
	return s.commitLocked(doc, next)
}

func (s *SessionStore) Transact(ctx context.Context, path string, m domain.Mutation) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		s.mu.Lock()
		doc := s.docLocked(path)
		version := doc.version
		current, err := domain.CloneRecord(doc.rec)
		s.mu.Unlock()
		if err != nil {
			return false, err
		}

		next, ok := m(current)
		if !ok {
			return false, nil
		}
		next, err = domain.CloneRecord(next)
		if err != nil {
			return false, err
		}

		s.mu.Lock()
		if doc.version != version {
			s.mu.Unlock()
			continue
		}
		err = s.commitLocked(doc, next)
		s.mu.Unlock()
		return err == nil, err
	}
}

// Version reports how many commits the document at path has seen.
func (s *SessionStore) Version(path string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docLocked(path).version
}

func (s *SessionStore) commitLocked(doc *document, rec *domain.SessionRecord) error {
	doc.version++
	doc.rec = rec
	for ch := range doc.subscribers {
		snapshot, err := domain.CloneRecord(rec)
		if err != nil {
			return err
		}
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return nil
}
