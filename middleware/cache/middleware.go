// Package cache 缓存单值查询和集合查询的结果。
//
// 任何一个写方法执行成功之后都会清空整个 Store；事务里面的写在事务提交之后还会再清空一次，
// 因为提交之前别的连接读到的还是旧数据。所以它只适合读多写少，
// 并且所有的写都经过 sql object 的场景。集合查询返回的切片是共享的，调用者不要修改它。
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/coderi421/sqlobject"
	"github.com/coderi421/sqlobject/handle"
	"github.com/gotomicro/ekit/syncx"
)

type MiddlewareBuilder struct {
	store Store
	// dirty 有写操作还没有提交的 handle
	dirty syncx.Map[*handle.Handle, struct{}]
}

func NewMiddlewareBuilder(store Store) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		store: store,
	}
}

func (m *MiddlewareBuilder) Build() sqlobject.Middleware {
	return func(next sqlobject.Invoker) sqlobject.Invoker {
		return func(ctx context.Context, inv *sqlobject.Invocation) *sqlobject.Result {
			switch inv.Kind {
			case sqlobject.KindScalarQuery, sqlobject.KindCollectionQuery:
			case sqlobject.KindUpdate:
				res := next(ctx, inv)
				if res.Err == nil {
					m.store.Flush()
					if inv.Handle != nil && inv.Handle.InTx() {
						m.dirty.Store(inv.Handle, struct{}{})
					}
				}
				return res
			case sqlobject.KindMixin:
				if inv.Capability == sqlobject.CapabilityTransactional && inv.Handle != nil {
					return m.endTx(ctx, inv, next)
				}
				return next(ctx, inv)
			default:
				return next(ctx, inv)
			}

			// 事务里面能看到还没提交的数据，不能缓存
			if inv.Handle != nil && inv.Handle.InTx() {
				return next(ctx, inv)
			}
			key := cacheKey(inv)
			if val, ok := m.store.Get(key); ok {
				return &sqlobject.Result{Val: val}
			}
			res := next(ctx, inv)
			if res.Err == nil {
				m.store.Set(key, res.Val)
			}
			return res
		}
	}
}

// endTx 事务结束之后，再清空一次这个事务写过的结果
func (m *MiddlewareBuilder) endTx(ctx context.Context, inv *sqlobject.Invocation,
	next sqlobject.Invoker) *sqlobject.Result {
	res := next(ctx, inv)
	if inv.Handle.InTx() {
		// 嵌套的 InTransaction，Savepoint 之类的，事务还在
		return res
	}
	if _, ok := m.dirty.Load(inv.Handle); !ok {
		return res
	}
	m.dirty.Delete(inv.Handle)
	m.store.Flush()
	return res
}

// cacheKey 类型.方法:参数
func cacheKey(inv *sqlobject.Invocation) string {
	var sb strings.Builder
	sb.WriteString(inv.Type.String())
	sb.WriteByte('.')
	sb.WriteString(inv.Method)
	for _, arg := range inv.Args {
		sb.WriteByte(':')
		sb.WriteString(fmt.Sprintf("%#v", arg))
	}
	return sb.String()
}
