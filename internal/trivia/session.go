package trivia

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionTTL = 30 * time.Minute

// SessionStore keeps the seen-question set of a quiz session in Redis, keyed
// by an opaque session token. The selection core stays stateless; this is
// only bookkeeping for clients that do not want to echo previous_questions
// themselves.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) key(token string) string {
	return "trivia:quizsession:" + token
}

// Seen returns the question ids already served to this session. An unknown
// token is an empty (non-nil) set.
func (s *SessionStore) Seen(ctx context.Context, token string) ([]int64, error) {
	members, err := s.client.SMembers(ctx, s.key(token)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MarkSeen records a served question id and refreshes the session TTL.
func (s *SessionStore) MarkSeen(ctx context.Context, token string, questionID int64) error {
	key := s.key(token)
	if err := s.client.SAdd(ctx, key, strconv.FormatInt(questionID, 10)).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}
