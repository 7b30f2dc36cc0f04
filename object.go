package sqlobject

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/coderi421/sqlobject/handle"
	"github.com/coderi421/sqlobject/internal/errs"
)

var (
	_ Transactional  = &Object{}
	_ GetHandle      = &Object{}
	_ internalCloser = &Object{}
)

// Object 把方法调用路由到对应的 Handler。
//
// 每个实例绑定一个 HandlerMap（所有同类型的实例共享）和一个 Handle（不归它所有，
// 除非是 Attach 创建的）。适配器嵌入 *Object，用 Call 和 Exec 转发自己的方法。
type Object struct {
	hm     *HandlerMap
	h      *handle.Handle
	db     *DB
	owned  bool
	closed atomic.Bool
}

// Call 调用返回 (R, error) 的方法
func Call[R any](o *Object, method string, args ...any) (R, error) {
	var r R
	val, err := o.invoke(method, args)
	if err != nil || val == nil {
		return r, err
	}
	r, ok := val.(R)
	if !ok {
		panic(fmt.Sprintf("sqlobject: %s.%s 返回了 %T, 不能转换成 %T", o.hm.typ, method, val, r))
	}
	return r, nil
}

// Exec 调用只返回 error 的方法
func Exec(o *Object, method string, args ...any) error {
	_, err := o.invoke(method, args)
	return err
}

// invoke 整个调用期间都持有 top-level 引用，重入调用会嵌套计数。
// 释放连接的错误不影响 handler 的结果
func (o *Object) invoke(method string, args []any) (any, error) {
	o.h.Retain(handle.TagTopLevel)
	defer func() {
		_ = o.h.Release(handle.TagTopLevel)
	}()

	b, ok := o.hm.bindings[method]
	if !ok {
		// 分类是完整的，走到这里说明适配器调用了接口上不存在的方法
		panic(fmt.Sprintf("sqlobject: %s.%s 没有对应的 handler", o.hm.typ, method))
	}
	if o.closed.Load() && !b.closes() {
		return nil, errs.ErrObjectClosed
	}

	ctx := context.Background()
	if b.method.Context {
		if len(args) == 0 {
			panic(fmt.Sprintf("sqlobject: %s.%s 缺少 context 参数", o.hm.typ, method))
		}
		if c, ok := args[0].(context.Context); ok && c != nil {
			ctx = c
		}
		args = args[1:]
	}

	inv := &Invocation{
		Type:       o.hm.typ,
		Method:     method,
		Kind:       b.kind,
		Capability: b.capability,
		SQL:        b.tag.SQL,
		Args:       args,
		Handle:     o.h,
	}
	root := Invoker(func(ctx context.Context, inv *Invocation) *Result {
		val, err := b.handler.Invoke(ctx, o.h, o, inv.Args)
		return &Result{Val: val, Err: err}
	})
	for i := len(o.db.mdls) - 1; i >= 0; i-- {
		root = o.db.mdls[i](root)
	}
	res := root(ctx, inv)
	return res.Val, res.Err
}

func (o *Object) Begin(ctx context.Context) error {
	return Exec(o, "Begin", ctx)
}

func (o *Object) Commit() error {
	return Exec(o, "Commit")
}

func (o *Object) Rollback() error {
	return Exec(o, "Rollback")
}

func (o *Object) Savepoint(ctx context.Context, name string) error {
	return Exec(o, "Savepoint", ctx, name)
}

func (o *Object) RollbackTo(ctx context.Context, name string) error {
	return Exec(o, "RollbackTo", ctx, name)
}

func (o *Object) ReleaseSavepoint(ctx context.Context, name string) error {
	return Exec(o, "ReleaseSavepoint", ctx, name)
}

func (o *Object) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return Exec(o, "InTransaction", ctx, fn)
}

// Handle 对象关闭之后返回 nil，需要区分的话用 Closed 判断
func (o *Object) Handle() *handle.Handle {
	h, err := Call[*handle.Handle](o, "Handle")
	if err != nil {
		return nil
	}
	return h
}

// Close 接口声明了 Close 的时候走接口上的方法，否则走内部的关闭
func (o *Object) Close() error {
	if !o.built() {
		return errs.NewErrNotSQLObject(o)
	}
	if _, ok := o.hm.bindings["Close"]; ok {
		return Exec(o, "Close")
	}
	return o.closeObject()
}

func (o *Object) closeObject() error {
	if !o.built() {
		return errs.NewErrNotSQLObject(o)
	}
	return Exec(o, "closeObject")
}

// built 只有 Build 和 Attach 创建的对象才有 HandlerMap 和 Handle
func (o *Object) built() bool {
	return o != nil && o.hm != nil && o.h != nil && o.db != nil
}

// Closed 是否已经关闭
func (o *Object) Closed() bool {
	return o.closed.Load()
}
