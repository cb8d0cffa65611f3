package out

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"saferun/internal/modules/session/domain"
	sessionout "saferun/internal/modules/session/port/out"
	apperrors "saferun/internal/platform/errors"
)

const maxUpdateAttempts = 16

// RedisStore keeps each session as a JSON string and maintains two sorted
// sets: open sessions by deadline and every session by owner. Update uses
// WATCH/MULTI and retries when another writer touched the same key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ sessionout.Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "saferun"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) sessionKey(id string) string  { return s.prefix + ":session:" + id }
func (s *RedisStore) ownerKey(owner string) string { return s.prefix + ":owner:" + owner }
func (s *RedisStore) openKey() string              { return s.prefix + ":open" }

// Create writes the record and both indexes in one MULTI under WATCH, so a
// session is never stored without its open-deadline entry.
func (s *RedisStore) Create(ctx context.Context, session domain.Session) error {
	session.Version = 1
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}
	key := s.sessionKey(session.ID)
	exists := errors.Wrapf(apperrors.ErrInvalidInput, "session %s already exists", session.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return errors.Wrap(err, "failed to check session")
		}
		if n > 0 {
			return exists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, s.ownerKey(session.OwnerID), redis.Z{Score: float64(session.CreatedAt.UnixMilli()), Member: session.ID})
			s.indexOpen(ctx, pipe, session)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Another writer touched the key between WATCH and EXEC.
		return exists
	}
	if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
		return errors.Wrap(err, "failed to save session")
	}
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (domain.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, errors.Wrapf(apperrors.ErrNotFound, "session %s", id)
		}
		return domain.Session{}, errors.Wrap(err, "failed to get session")
	}
	return unmarshalSession(data)
}

func (s *RedisStore) Update(ctx context.Context, id string, expected domain.Status, mutate sessionout.MutateFunc) (domain.Session, error) {
	key := s.sessionKey(id)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var next domain.Session
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return errors.Wrapf(apperrors.ErrNotFound, "session %s", id)
				}
				return errors.Wrap(err, "failed to get session")
			}
			current, err := unmarshalSession(data)
			if err != nil {
				return err
			}
			if expected != "" && current.Status != expected {
				return errors.Wrapf(apperrors.ErrPreconditionFailed, "session %s is %s, want %s", id, current.Status, expected)
			}
			next = current.Clone()
			if err := mutate(&next); err != nil {
				return err
			}
			next.ID = current.ID
			next.Version = current.Version + 1
			payload, err := json.Marshal(next)
			if err != nil {
				return errors.Wrap(err, "failed to marshal session")
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				s.indexOpen(ctx, pipe, next)
				return nil
			})
			return err
		}, key)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.Session{}, err
	}
	return domain.Session{}, errors.Wrapf(apperrors.ErrPreconditionFailed, "session %s: too much write contention", id)
}

func (s *RedisStore) QueryOverdue(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	ids, err := s.client.ZRangeByScore(ctx, s.openKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query open sessions")
	}
	sessions, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := sessions[:0]
	for _, session := range sessions {
		if session.Overdue(cutoff) {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *RedisStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Session, error) {
	ids, err := s.client.ZRevRange(ctx, s.ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list owner sessions")
	}
	return s.load(ctx, ids)
}

// indexOpen keeps the deadline set limited to sessions the sweeper may still
// escalate.
func (s *RedisStore) indexOpen(ctx context.Context, pipe redis.Pipeliner, session domain.Session) {
	if session.Status == domain.StatusActive && !session.EscalationSent {
		pipe.ZAdd(ctx, s.openKey(), redis.Z{Score: float64(session.Deadline.UnixMilli()), Member: session.ID})
		return
	}
	pipe.ZRem(ctx, s.openKey(), session.ID)
}

func (s *RedisStore) load(ctx context.Context, ids []string) ([]domain.Session, error) {
	out := []domain.Session{}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.sessionKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sessions")
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		session, err := unmarshalSession([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

func unmarshalSession(data []byte) (domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, errors.Wrap(err, "failed to unmarshal session")
	}
	return session, nil
}
