package service

import (
	"context"
	"errors"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/pkg/common"
	redisPkg "github.com/sperezintexas/fintech-app-sub006/pkg/redis"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes job execution across processes. One lease exists per
// job name; the TTL bounds how long a crashed holder can block the job.
type Locker interface {
	Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, jobName string) error
}

// RedisLocker implements Locker with a per-job SETNX lease. The value is
// this process's owner ID so a lease is only released by its holder.
type RedisLocker struct {
	client *redisPkg.Client
	owner  string
}

// NewRedisLocker creates a locker with a fresh owner identity.
func NewRedisLocker(client *redisPkg.Client) *RedisLocker {
	return &RedisLocker{client: client, owner: uuid.NewString()}
}

func (l *RedisLocker) Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, common.JobLeaseKey(jobName), l.owner, ttl).Result()
}

// Release deletes the lease only when this process still holds it. An
// expired lease taken over by another process is left alone.
func (l *RedisLocker) Release(ctx context.Context, jobName string) error {
	key := common.JobLeaseKey(jobName)
	holder, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if holder != l.owner {
		return nil
	}
	return l.client.Del(ctx, key).Err()
}
