package sqlobject

import (
	"context"
	"fmt"
	"reflect"

	"github.com/coderi421/sqlobject/handle"
)

// Transactional 事务控制，接口嵌入它就可以直接控制事务
type Transactional interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error
	// InTransaction 在事务里面执行 fn，fn 返回 error 或者 panic 的时候回滚。
	// 已经在事务里面的时候直接执行 fn
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// GetHandle 暴露底层的 Handle
type GetHandle interface {
	Handle() *handle.Handle
}

// internalCloser 所有 Build 出来的对象都实现了它，Close 依赖它识别对象
type internalCloser interface {
	closeObject() error
}

const (
	CapabilityTransactional = "Transactional"
	CapabilityGetHandle     = "GetHandle"
	CapabilityCloseInternal = "CloseInternal"
)

type mixinKey struct {
	name string
	typ  reflect.Type
}

type mixin struct {
	method     Method
	capability string
	handler    Handler
}

// mixinHandlers 进程级别的能力表，初始化之后只读
var mixinHandlers = buildMixinHandlers()

func buildMixinHandlers() map[mixinKey]mixin {
	res := make(map[mixinKey]mixin, 10)
	register := func(capability string, typ reflect.Type, handlers map[string]Handler) {
		for i := 0; i < typ.NumMethod(); i++ {
			m := newMethod(typ.Method(i))
			h, ok := handlers[m.Name]
			if !ok {
				panic(fmt.Sprintf("sqlobject: %s.%s 没有对应的 handler", capability, m.Name))
			}
			res[mixinKey{name: m.Name, typ: m.Type}] = mixin{
				method:     m,
				capability: capability,
				handler:    h,
			}
		}
	}

	register(CapabilityTransactional, reflect.TypeOf((*Transactional)(nil)).Elem(), map[string]Handler{
		"Begin":            beginHandler{},
		"Commit":           commitHandler{},
		"Rollback":         rollbackHandler{},
		"Savepoint":        savepointHandler{},
		"RollbackTo":       rollbackToHandler{},
		"ReleaseSavepoint": releaseSavepointHandler{},
		"InTransaction":    inTransactionHandler{},
	})
	register(CapabilityGetHandle, reflect.TypeOf((*GetHandle)(nil)).Elem(), map[string]Handler{
		"Handle": getHandleHandler{},
	})
	register(CapabilityCloseInternal, reflect.TypeOf((*internalCloser)(nil)).Elem(), map[string]Handler{
		"closeObject": closeHandler{},
	})
	return res
}

type beginHandler struct{}

func (beginHandler) Invoke(ctx context.Context, h *handle.Handle, _ *Object, _ []any) (any, error) {
	return nil, h.Begin(ctx)
}

type commitHandler struct{}

func (commitHandler) Invoke(_ context.Context, h *handle.Handle, _ *Object, _ []any) (any, error) {
	return nil, h.Commit()
}

type rollbackHandler struct{}

func (rollbackHandler) Invoke(_ context.Context, h *handle.Handle, _ *Object, _ []any) (any, error) {
	return nil, h.Rollback()
}

type savepointHandler struct{}

func (savepointHandler) Invoke(ctx context.Context, h *handle.Handle, _ *Object, args []any) (any, error) {
	return nil, h.Savepoint(ctx, args[0].(string))
}

type rollbackToHandler struct{}

func (rollbackToHandler) Invoke(ctx context.Context, h *handle.Handle, _ *Object, args []any) (any, error) {
	return nil, h.RollbackTo(ctx, args[0].(string))
}

type releaseSavepointHandler struct{}

func (releaseSavepointHandler) Invoke(ctx context.Context, h *handle.Handle, _ *Object, args []any) (any, error) {
	return nil, h.ReleaseSavepoint(ctx, args[0].(string))
}

type inTransactionHandler struct{}

func (inTransactionHandler) Invoke(ctx context.Context, h *handle.Handle, _ *Object, args []any) (any, error) {
	fn := args[0].(func(ctx context.Context) error)
	if h.InTx() {
		return nil, fn(ctx)
	}
	if err := h.Begin(ctx); err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		// 覆盖 fn 返回 error 和 panic 两种情况
		if !committed {
			_ = h.Rollback()
		}
	}()
	if err := fn(ctx); err != nil {
		return nil, err
	}
	committed = true
	return nil, h.Commit()
}

type getHandleHandler struct{}

func (getHandleHandler) Invoke(_ context.Context, h *handle.Handle, _ *Object, _ []any) (any, error) {
	return h, nil
}
