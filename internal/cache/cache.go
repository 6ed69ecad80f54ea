// Package cache 缓存排班生成结果
// 相同输入和配置的确定性结果直接从 Redis 返回，避免重复求解
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Simon6088/Doctor-Scheduling-System/internal/config"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
)

const keyPrefix = "schedule:result:"

// ResultCache 基于 Redis 的排班结果缓存
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient 根据配置创建 Redis 客户端，连接失败只记录警告
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr()).Msg("无法连接 Redis，结果缓存暂不可用")
	} else {
		logger.Info().Str("addr", cfg.Addr()).Msg("Redis 连接成功")
	}
	return client
}

// New 创建结果缓存
func New(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Fingerprint 计算请求指纹
// 输入与配置经 JSON 序列化后取 SHA-256，字段顺序固定
func Fingerprint(in scheduler.Input, opts scheduler.Options) (string, error) {
	payload, err := json.Marshal(struct {
		Input   scheduler.Input   `json:"input"`
		Options scheduler.Options `json:"options"`
	}{in, opts})
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Cacheable 只缓存与运行环境无关的结果
// FEASIBLE 和 TIMEOUT 取决于当次可用时间，不缓存
func Cacheable(r *scheduler.Result) bool {
	if r == nil {
		return false
	}
	switch r.Outcome {
	case scheduler.OutcomeOptimal, scheduler.OutcomeInfeasible, scheduler.OutcomeInvalidInput:
		return true
	default:
		return false
	}
}

// Key 返回指纹对应的 Redis 键
func Key(fingerprint string) string {
	return keyPrefix + fingerprint
}

// Get 读取缓存，未命中时返回 (nil, false, nil)
func (c *ResultCache) Get(ctx context.Context, fingerprint string) (*scheduler.Result, bool, error) {
	data, err := c.client.Get(ctx, Key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取排班缓存失败: %w", err)
	}

	var result scheduler.Result
	if err := json.Unmarshal(data, &result); err != nil {
		// 格式不兼容的旧数据视为未命中
		logger.WithContext(ctx).Warn().Err(err).Str("key", Key(fingerprint)).Msg("排班缓存数据损坏")
		return nil, false, nil
	}
	return &result, true, nil
}

// Set 写入缓存，不可缓存的结果直接忽略
func (c *ResultCache) Set(ctx context.Context, fingerprint string, result *scheduler.Result) error {
	if !Cacheable(result) {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化排班结果失败: %w", err)
	}
	if err := c.client.Set(ctx, Key(fingerprint), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入排班缓存失败: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (c *ResultCache) Close() error {
	return c.client.Close()
}
