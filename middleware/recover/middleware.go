package recover

import (
	"context"

	"github.com/coderi421/sqlobject"
	"github.com/coderi421/sqlobject/internal/errs"
)

// MiddlewareBuilder 把 handler 里面的 panic 转换成 ErrHandlerPanic。
// 默认情况下 panic 会原样抛出去，需要的话自己加上这个中间件
type MiddlewareBuilder struct {
	LogFunc func(ctx context.Context, inv *sqlobject.Invocation, err any)
}

func (m *MiddlewareBuilder) Build() sqlobject.Middleware {
	return func(next sqlobject.Invoker) sqlobject.Invoker {
		return func(ctx context.Context, inv *sqlobject.Invocation) (res *sqlobject.Result) {
			defer func() {
				if err := recover(); err != nil {
					res = &sqlobject.Result{Err: errs.NewErrHandlerPanic(err)}
					// 万一 LogFunc 也panic，那我们也无能为力了
					if m.LogFunc != nil {
						m.LogFunc(ctx, inv, err)
					}
				}
			}()
			return next(ctx, inv)
		}
	}
}
