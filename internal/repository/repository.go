// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/internal/database"
)

// DB 数据库接口
type DB = database.Querier

// TxDB 支持事务的数据库
type TxDB interface {
	DB
	Transaction(ctx context.Context, fn func(tx database.Querier) error) error
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// notFound 将 sql.ErrNoRows 转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// uuidStrings 转换为 pq.Array 可接受的字符串切片
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
