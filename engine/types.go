package engine

import (
	"context"
	"database/sql"
	"reflect"
)

// Executor 是 *sql.DB，*sql.Conn 和 *sql.Tx 的公共部分
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Conn)(nil)
	_ Executor = (*sql.Tx)(nil)
)

// Statement 一次要执行的 SQL 和它的参数
type Statement struct {
	SQL  string
	Args []any
}

// Engine 真正执行 SQL 并且把结果解码成 Go 的值
// typ 是解码目标的类型，例如 *User，User，int64
type Engine interface {
	// List 立刻执行并读完全部行，返回 []typ
	List(ctx context.Context, ex Executor, st Statement, typ reflect.Type) (reflect.Value, error)
	// Rows 执行查询，返回只能向前遍历一次的结果
	Rows(ctx context.Context, ex Executor, st Statement, typ reflect.Type) (*Rows, error)
	// One 执行查询，返回唯一的一行
	One(ctx context.Context, ex Executor, st Statement, typ reflect.Type) (reflect.Value, error)
	Exec(ctx context.Context, ex Executor, st Statement) (sql.Result, error)
}
