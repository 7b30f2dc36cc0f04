package sqlobject

import (
	"context"
	"reflect"

	"github.com/coderi421/sqlobject/handle"
)

// Invocation 中间件的上下文，描述一次方法调用
type Invocation struct {
	// Type 被代理的接口类型
	Type   reflect.Type
	Method string
	Kind   HandlerKind
	// Capability 只有 mixin 方法才有
	Capability string
	SQL        string
	// Args 不包含 context，中间件可以修改它
	Args   []any
	Handle *handle.Handle
}

type Result struct {
	// Val 在不同的方法里面类型是不同的
	// 单值查询是单个结果，集合查询是切片，游标和迭代器是 *Query[T] 和 *Iterator[T]
	Val any
	Err error
}

type Invoker func(ctx context.Context, inv *Invocation) *Result

type Middleware func(next Invoker) Invoker
