package sqlobject

import (
	"iter"
	"reflect"

	"github.com/coderi421/sqlobject/engine"
	"github.com/coderi421/sqlobject/handle"
	"github.com/coderi421/sqlobject/internal/errs"
)

// iteratorBinder 只有 *Iterator[T] 实现了它
type iteratorBinder interface {
	elemType() reflect.Type
	bindRows(h *handle.Handle, rows *engine.Rows)
}

// Iterator 只能向前遍历一次的结果，不能重新开始。
// 迭代器持有 handle 的引用，读完、出错或者 Close 之后释放
type Iterator[T any] struct {
	h    *handle.Handle
	rows *engine.Rows
	cur  T
	err  error
	done bool
}

func (it *Iterator[T]) elemType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (it *Iterator[T]) bindRows(h *handle.Handle, rows *engine.Rows) {
	it.h = h
	it.rows = rows
}

// Next 移动到下一行
func (it *Iterator[T]) Next() bool {
	if it.done || it.rows == nil {
		return false
	}
	if it.rows.Next() {
		it.cur = valueOf[T](it.rows.Value())
		return true
	}
	it.err = it.rows.Err()
	_ = it.Close()
	return false
}

// Value 当前行
func (it *Iterator[T]) Value() T {
	return it.cur
}

func (it *Iterator[T]) Err() error {
	return it.err
}

// Close 可以重复调用，只有第一次会释放 handle
func (it *Iterator[T]) Close() error {
	if it.done || it.rows == nil {
		return nil
	}
	it.done = true
	err := it.rows.Close()
	if rerr := it.h.Release(handle.TagIterator); err == nil {
		err = rerr
	}
	return err
}

// All 用于 for range。提前 break 会关闭迭代器，第二次 range 只会得到 ErrIteratorDone
func (it *Iterator[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if it.done {
			var t T
			yield(t, errs.ErrIteratorDone)
			return
		}
		for it.Next() {
			if !yield(it.Value(), nil) {
				_ = it.Close()
				return
			}
		}
		if it.err != nil {
			var t T
			yield(t, it.err)
		}
	}
}
