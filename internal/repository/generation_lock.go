package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// GenerationLock 实现每会话的生成单飞锁。
// 源项目只靠前端禁用按钮防止并发生成，这里在服务端补上显式互斥。
type GenerationLock interface {
	// Acquire 尝试为会话获取锁，返回是否成功。
	Acquire(ctx context.Context, sessionKey string, ttl time.Duration) (bool, error)
	// Release 释放会话的锁。
	Release(ctx context.Context, sessionKey string) error
}

type redisGenerationLock struct {
	redisClient *redis.Client
}

// NewGenerationLock 创建一个基于 Redis 的 GenerationLock 实例。
func NewGenerationLock(redisClient *redis.Client) GenerationLock {
	return &redisGenerationLock{redisClient: redisClient}
}

func lockKey(sessionKey string) string {
	return fmt.Sprintf("generation:inflight:%s", sessionKey)
}

// Acquire 用 SETNX 抢占锁，TTL 兜底避免崩溃后死锁。
func (l *redisGenerationLock) Acquire(ctx context.Context, sessionKey string, ttl time.Duration) (bool, error) {
	ok, err := l.redisClient.SetNX(ctx, lockKey(sessionKey), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	return ok, nil
}

func (l *redisGenerationLock) Release(ctx context.Context, sessionKey string) error {
	return l.redisClient.Del(ctx, lockKey(sessionKey)).Err()
}
