package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/domain"
)

const (
	maxReconnects = 10
	reconnectWait = 2 * time.Second
)

// SessionStore keeps the session document as one JSON value in a JetStream key-value bucket.
// Every key revision is a commit; transactions are compare-and-set on that revision.
type SessionStore struct {
	kv jetstream.KeyValue
}

func NewSessionStore(kv jetstream.KeyValue) *SessionStore {
	return &SessionStore{kv: kv}
}

// Connect dials NATS and opens (or creates) the bucket. The returned close function drains the connection.
func Connect(ctx context.Context, url, bucket string) (*SessionStore, func(), error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "shared trivia session documents",
		History:     1,
	})
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("drain NATS connection")
		}
	}
	return NewSessionStore(kv), closeFn, nil
}

func (s *SessionStore) Write(ctx context.Context, path string, rec *domain.SessionRecord) error {
	if rec == nil {
		if err := s.kv.Delete(ctx, path); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if _, err := s.kv.Put(ctx, path, raw); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// Patch is a read-modify-write on the revision. Only the named fields differ from the
// revision it read, so a retry after a conflict keeps concurrent changes to other fields.
func (s *SessionStore) Patch(ctx context.Context, path string, p domain.Patch) error {
	_, err := s.Transact(ctx, path, func(cur *domain.SessionRecord) (*domain.SessionRecord, bool) {
		next, err := domain.ApplyPatch(cur, p)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("apply patch")
			return nil, false
		}
		return next, true
	})
	return err
}

func (s *SessionStore) Transact(ctx context.Context, path string, m domain.Mutation) (bool, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		current, rev, err := s.get(ctx, path)
		if err != nil {
			return false, err
		}
		next, ok := m(current)
		if !ok {
			return false, nil
		}
		err = s.commit(ctx, path, rev, next)
		if isConflict(err) {
			log.Debug().Str("path", path).Int("attempt", attempt).Msg("session revision conflict, retrying")
			continue
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
}

// Subscribe watches the key. The watcher replays the latest value, then marks the end of
// the replay with a nil entry; an absent document is reported at that marker.
func (s *SessionStore) Subscribe(ctx context.Context, path string) (<-chan *domain.SessionRecord, func(), error) {
	watcher, err := s.kv.Watch(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", path, err)
	}

	out := make(chan *domain.SessionRecord, 8)
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		replayed := false
		var latest *domain.SessionRecord
		for {
			var entry jetstream.KeyValueEntry
			select {
			case <-quit:
				return
			case e, ok := <-watcher.Updates():
				if !ok {
					return
				}
				entry = e
			}
			if entry == nil {
				if !replayed {
					replayed = true
					emit(out, latest)
				}
				continue
			}
			rec, err := decode(entry)
			if err != nil {
				log.Error().Err(err).Str("path", path).Uint64("revision", entry.Revision()).Msg("decode session entry")
				continue
			}
			if !replayed {
				latest = rec
				continue
			}
			emit(out, rec)
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(quit)
			if err := watcher.Stop(); err != nil {
				log.Debug().Err(err).Str("path", path).Msg("stop watcher")
			}
			<-done
		})
	}
	return out, stop, nil
}

func (s *SessionStore) get(ctx context.Context, path string) (*domain.SessionRecord, uint64, error) {
	entry, err := s.kv.Get(ctx, path)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		return nil, 0, nil
	case err != nil:
		return nil, 0, fmt.Errorf("get %s: %w", path, err)
	}
	rec, err := decode(entry)
	if err != nil {
		return nil, 0, err
	}
	return rec, entry.Revision(), nil
}

// commit writes next only if the key is still at rev (0 meaning absent).
func (s *SessionStore) commit(ctx context.Context, path string, rev uint64, next *domain.SessionRecord) error {
	if next == nil {
		if rev == 0 {
			return nil
		}
		return s.kv.Delete(ctx, path, jetstream.LastRevision(rev))
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if rev == 0 {
		_, err = s.kv.Create(ctx, path, raw)
		return err
	}
	_, err = s.kv.Update(ctx, path, raw, rev)
	return err
}

func decode(entry jetstream.KeyValueEntry) (*domain.SessionRecord, error) {
	if entry.Operation() != jetstream.KeyValuePut {
		return nil, nil
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

func isConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

func emit(out chan *domain.SessionRecord, rec *domain.SessionRecord) {
	select {
	case out <- rec:
	default:
		select {
		case <-out:
		default:
		}
		out <- rec
	}
}
