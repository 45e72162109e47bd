package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const connTTL = 24 * time.Hour

// RedisStore keeps presence in a shared keyspace so several server processes
// can route to each other's users. Keys: <prefix>:conn:<userID> holding a set
// of connection ids.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", s.prefix, userID)
}

func (s *RedisStore) Add(ctx context.Context, userID, connID string) error {
	key := s.connKey(userID)
	if err := s.client.SAdd(ctx, key, connID).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, connTTL).Err()
}

func (s *RedisStore) Remove(ctx context.Context, userID, connID string) error {
	return s.client.SRem(ctx, s.connKey(userID), connID).Err()
}

func (s *RedisStore) Connections(ctx context.Context, userID string) ([]string, error) {
	return s.client.SMembers(ctx, s.connKey(userID)).Result()
}
