package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/domain"
)

// SessionStore keeps the session document in Redis so clients in different processes share it.
// Layout:
//
//	HSET quiz:session:{path} {field} {json}   one entry per top-level document field
//	INCR quiz:session:{path}:rev              bumped by every commit, never expires
//	PUBLISH quiz:session:{path}:changed       wakes subscribers, which re-read the hash
//
// Transactions WATCH the hash and the revision and retry when EXEC fails.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Write(ctx context.Context, path string, rec *domain.SessionRecord) error {
	var fields map[string]string
	if rec != nil {
		var err error
		if fields, err = domain.EncodeFields(rec); err != nil {
			return err
		}
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(path))
		if len(fields) > 0 {
			pipe.HSet(ctx, s.docKey(path), pairs(fields)...)
		}
		s.commit(ctx, pipe, path)
		return nil
	})
	return err
}

func (s *SessionStore) Patch(ctx context.Context, path string, p domain.Patch) error {
	set, cleared, err := p.Encode()
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, s.docKey(path), pairs(set)...)
		}
		if len(cleared) > 0 {
			pipe.HDel(ctx, s.docKey(path), cleared...)
		}
		s.commit(ctx, pipe, path)
		return nil
	})
	return err
}

func (s *SessionStore) Transact(ctx context.Context, path string, m domain.Mutation) (bool, error) {
	for attempt := 1; ; attempt++ {
		committed := false
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.HGetAll(ctx, s.docKey(path)).Result()
			if err != nil {
				return err
			}
			current, err := domain.DecodeFields(raw)
			if err != nil {
				return err
			}
			next, ok := m(current)
			if !ok {
				return nil
			}
			var fields map[string]string
			if next != nil {
				if fields, err = domain.EncodeFields(next); err != nil {
					return err
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, s.docKey(path))
				if len(fields) > 0 {
					pipe.HSet(ctx, s.docKey(path), pairs(fields)...)
				}
				s.commit(ctx, pipe, path)
				return nil
			})
			if err == nil {
				committed = true
			}
			return err
		}, s.docKey(path), s.revKey(path))

		switch {
		case errors.Is(err, redis.TxFailedErr):
			log.Debug().Str("path", path).Int("attempt", attempt).Msg("session transaction conflict, retrying")
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			continue
		case err != nil:
			return false, err
		}
		return committed, nil
	}
}

// Subscribe listens for change notifications and emits the document each time a newer
// revision is read. Notifications that arrive while a read is in flight collapse into it.
func (s *SessionStore) Subscribe(ctx context.Context, path string) (<-chan *domain.SessionRecord, func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel(path))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", s.channel(path), err)
	}

	rev, rec, err := s.read(ctx, path)
	if err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan *domain.SessionRecord, 8)
	out <- rec

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		notes := pubsub.Channel()
		last := rev
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-notes:
				if !ok {
					return
				}
				rev, rec, err := s.read(subCtx, path)
				if err != nil {
					if subCtx.Err() == nil {
						log.Error().Err(err).Str("path", path).Msg("read session snapshot")
					}
					continue
				}
				if rev <= last {
					continue
				}
				last = rev
				emit(out, rec)
			}
		}
	}()

	stop := func() {
		cancel()
		_ = pubsub.Close()
		<-done
	}
	return out, stop, nil
}

// read returns the revision and document from one MULTI so they always match.
func (s *SessionStore) read(ctx context.Context, path string) (int64, *domain.SessionRecord, error) {
	var revCmd *redis.StringCmd
	var docCmd *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		revCmd = pipe.Get(ctx, s.revKey(path))
		docCmd = pipe.HGetAll(ctx, s.docKey(path))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, nil, err
	}

	var rev int64
	if raw, err := revCmd.Result(); err == nil {
		if rev, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return 0, nil, fmt.Errorf("parse revision: %w", err)
		}
	}
	rec, err := domain.DecodeFields(docCmd.Val())
	if err != nil {
		return 0, nil, err
	}
	return rev, rec, nil
}

// commit queues the revision bump, expiry refresh and change notification.
func (s *SessionStore) commit(ctx context.Context, pipe redis.Pipeliner, path string) {
	pipe.Incr(ctx, s.revKey(path))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.docKey(path), s.ttl)
	}
	pipe.Publish(ctx, s.channel(path), "changed")
}

func (s *SessionStore) docKey(path string) string {
	return "quiz:session:" + path
}

func (s *SessionStore) revKey(path string) string {
	return "quiz:session:" + path + ":rev"
}

func (s *SessionStore) channel(path string) string {
	return "quiz:session:" + path + ":changed"
}

func pairs(fields map[string]string) []interface{} {
	out := make([]interface{}, 0, 2*len(fields))
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

// emit delivers the latest snapshot, dropping an unread older one if the buffer is full.
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
