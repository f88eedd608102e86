package storage

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/servekit/core"
)

// RedisStore 是 Redis 实现的 ObjectStore，适合小对象暂存（数据切片、预测结果缓存）。
// Redis 不提供服务端信封加密：Put 传入非空 kmsKeyID 时返回
// core.ErrEncryptionNotSupported，需要加密落盘的数据应使用 S3Store。
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Put(ctx context.Context, key string, value []byte, kmsKeyID ...string) error {
	if len(kmsKeyID) > 0 && kmsKeyID[0] != "" {
		return core.ErrEncryptionNotSupported
	}
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrObjectNotFound
	}
	return val, err
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	// SCAN 而非 KEYS：避免在大库上阻塞 Redis
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.ObjectStore = (*RedisStore)(nil)
