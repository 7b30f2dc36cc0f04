package sqlobject

import (
	"context"
	"reflect"

	"github.com/coderi421/sqlobject/engine"
	"github.com/coderi421/sqlobject/handle"
	"github.com/coderi421/sqlobject/internal/errs"
)

// cursorBinder 只有 *Query[T] 实现了它，分类的时候用来识别游标类型的返回值
type cursorBinder interface {
	bindQuery(h *handle.Handle, e engine.Engine, st engine.Statement)
}

// Query 已经绑定好参数但是还没有执行的查询。
// 返回 *Query[T] 的方法不会访问数据库，调用 List，One 或者 Iter 的时候才执行
type Query[T any] struct {
	h  *handle.Handle
	e  engine.Engine
	st engine.Statement
}

func (q *Query[T]) bindQuery(h *handle.Handle, e engine.Engine, st engine.Statement) {
	q.h = h
	q.e = e
	q.st = st
}

// Build 返回要执行的 SQL 和参数
func (q *Query[T]) Build() (*engine.Statement, error) {
	if q.h == nil {
		return nil, errs.ErrInvalidArgument
	}
	st := q.st
	return &st, nil
}

// List 执行查询并且读取全部的结果
func (q *Query[T]) List(ctx context.Context) ([]T, error) {
	ex, err := q.retain(ctx)
	if err != nil {
		return nil, err
	}
	defer q.release()
	res, err := q.e.List(ctx, ex, q.st, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return res.Interface().([]T), nil
}

// One 执行查询，只能返回一行
func (q *Query[T]) One(ctx context.Context) (T, error) {
	var t T
	ex, err := q.retain(ctx)
	if err != nil {
		return t, err
	}
	defer q.release()
	res, err := q.e.One(ctx, ex, q.st, reflect.TypeFor[T]())
	if err != nil {
		return t, err
	}
	return valueOf[T](res), nil
}

// Iter 执行查询，返回迭代器
func (q *Query[T]) Iter(ctx context.Context) (*Iterator[T], error) {
	if q.h == nil {
		return nil, errs.ErrInvalidArgument
	}
	q.h.Retain(handle.TagIterator)
	ex, err := q.h.Executor(ctx)
	if err != nil {
		_ = q.h.Release(handle.TagIterator)
		return nil, err
	}
	rows, err := q.e.Rows(ctx, ex, q.st, reflect.TypeFor[T]())
	if err != nil {
		_ = q.h.Release(handle.TagIterator)
		return nil, err
	}
	it := &Iterator[T]{}
	it.bindRows(q.h, rows)
	return it, nil
}

func (q *Query[T]) retain(ctx context.Context) (engine.Executor, error) {
	if q.h == nil {
		return nil, errs.ErrInvalidArgument
	}
	q.h.Retain(handle.TagQuery)
	ex, err := q.h.Executor(ctx)
	if err != nil {
		q.release()
		return nil, err
	}
	return ex, nil
}

func (q *Query[T]) release() {
	_ = q.h.Release(handle.TagQuery)
}

// valueOf nil 接口不能直接断言
func valueOf[T any](val reflect.Value) T {
	var t T
	if !val.IsValid() {
		return t
	}
	if res, ok := val.Interface().(T); ok {
		return res
	}
	return t
}
