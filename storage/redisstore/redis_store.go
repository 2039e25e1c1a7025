package redisstore

import (
	"context"

	"github.com/jrsteele09/go-guard-companion/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ storage.Repo = (*Store)(nil)

// Store keeps the client's keys in a single redis hash. It lets several gate
// terminals on one kiosk host share a device identity.
type Store struct {
	rdb redis.UniversalClient
	key string
}

// New returns a Store writing to the hash "<prefix>:storage"
func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "guard"
	}
	return &Store{rdb: rdb, key: prefix + ":storage"}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "[redisstore.Get] %s", key)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.HSet(ctx, s.key, key, value).Err(); err != nil {
		return errors.Wrapf(err, "[redisstore.Set] %s", key)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rdb.HDel(ctx, s.key, key).Err(); err != nil {
		return errors.Wrapf(err, "[redisstore.Remove] %s", key)
	}
	return nil
}
