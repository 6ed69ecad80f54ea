// Package database 管理 PostgreSQL 连接池，记录慢查询并提供事务封装
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/Simon6088/Doctor-Scheduling-System/internal/config"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/metrics"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
)

const maxLoggedQuery = 200

// Querier 连接池与事务共有的查询方法，仓储只依赖它
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB 带慢查询记录的连接池
type DB struct {
	pool *sql.DB
	slow slowLog
}

// New 打开连接池并在 ConnectTimeout 内确认可用
func New(cfg *config.DatabaseConfig) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("连接数据库 %s:%d 失败: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Dur("slow_query", cfg.SlowQuery).
		Msg("数据库连接成功")

	return &DB{pool: pool, slow: slowLog{threshold: cfg.SlowQuery}}, nil
}

// Close 关闭连接池
func (db *DB) Close() error {
	logger.Info().Msg("关闭数据库连接")
	return db.pool.Close()
}

// Health 探测连接并刷新连接池指标
func (db *DB) Health(ctx context.Context) error {
	stats := db.pool.Stats()
	metrics.SetDBConnections(stats.InUse, stats.Idle)
	return db.pool.PingContext(ctx)
}

// Transaction 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (db *DB) Transaction(ctx context.Context, fn func(tx Querier) error) error {
	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txQuerier{tx: tx, slow: db.slow}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer db.slow.observe(ctx, "exec", query, time.Now())
	return db.pool.ExecContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer db.slow.observe(ctx, "query", query, time.Now())
	return db.pool.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer db.slow.observe(ctx, "query_row", query, time.Now())
	return db.pool.QueryRowContext(ctx, query, args...)
}

type txQuerier struct {
	tx   *sql.Tx
	slow slowLog
}

func (t *txQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer t.slow.observe(ctx, "exec", query, time.Now())
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *txQuerier) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer t.slow.observe(ctx, "query", query, time.Now())
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *txQuerier) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer t.slow.observe(ctx, "query_row", query, time.Now())
	return t.tx.QueryRowContext(ctx, query, args...)
}

// slowLog 耗时超过 threshold 的语句记日志并计数，threshold 为 0 时不记录
type slowLog struct {
	threshold time.Duration
}

// observe 返回是否判定为慢查询
func (s slowLog) observe(ctx context.Context, op, query string, start time.Time) bool {
	if s.threshold <= 0 {
		return false
	}
	duration := time.Since(start)
	if duration <= s.threshold {
		return false
	}

	metrics.RecordSlowQuery(op)
	logger.WithContext(ctx).Warn().
		Str("op", op).
		Str("query", truncateQuery(query)).
		Dur("duration", duration).
		Msg("慢SQL查询")
	return true
}

func truncateQuery(query string) string {
	if len(query) > maxLoggedQuery {
		return query[:maxLoggedQuery] + "..."
	}
	return query
}
