package registry

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

const (
	DefaultRedisKey        = "links"
	DefaultRedisMaxRetries = 10
)

// RedisStore keeps the registry in a single hash, one field per short code.
// Update is an optimistic WATCH/MULTI transaction retried when the hash changes underneath it.
type RedisStore struct {
	client     *redis.Client
	key        string
	maxRetries int
}

// RedisConfig holds options for RedisStore.
type RedisConfig struct {
	Key        string
	MaxRetries int
}

// NewRedisStore takes ownership of client.
func NewRedisStore(client *redis.Client, cfg *RedisConfig) *RedisStore {
	if cfg == nil {
		cfg = &RedisConfig{}
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultRedisMaxRetries
	}

	return &RedisStore{client: client, key: key, maxRetries: retries}
}

func (s *RedisStore) Load(ctx context.Context) (Registry, error) {
	m, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, errx.E("registry.redis.Load", errx.Storage, err)
	}
	return Registry(m), nil
}

func (s *RedisStore) Save(ctx context.Context, reg Registry) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(reg) > 0 {
			pipe.HSet(ctx, s.key, map[string]string(reg))
		}
		return nil
	})
	if err != nil {
		return errx.E("registry.redis.Save", errx.Storage, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, fn UpdateFunc) error {
	const op = "registry.redis.Update"

	var fnErr error
	txf := func(tx *redis.Tx) error {
		m, err := tx.HGetAll(ctx, s.key).Result()
		if err != nil {
			return err
		}
		reg := Registry(m)
		before := reg.Clone()

		if fnErr = fn(reg); fnErr != nil {
			return fnErr
		}

		c := diff(before, reg)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(c.upserts) > 0 {
				pipe.HSet(ctx, s.key, map[string]string(c.upserts))
			}
			if len(c.deletes) > 0 {
				pipe.HDel(ctx, s.key, c.deletes...)
			}
			return nil
		})
		return err
	}

	for range s.maxRetries {
		err := s.client.Watch(ctx, txf, s.key)
		switch {
		case fnErr != nil:
			return fnErr
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return errx.E(op, errx.Storage, err)
		}
	}
	return errx.E(op, errx.Unavailable, errors.New("registry changed concurrently, retries exhausted"))
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
