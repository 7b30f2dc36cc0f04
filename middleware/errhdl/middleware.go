package errhdl

import (
	"context"
	"errors"

	"github.com/coderi421/sqlobject"
)

type mapping struct {
	target error
	to     error
}

// MiddlewareBuilder 把底层的错误换成业务上的错误，比如 ErrNoRows 换成 ErrUserNotFound
type MiddlewareBuilder struct {
	// 按注册的顺序匹配，第一个匹配上的生效
	mappings []mapping
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

// AddError 注册错误替换，用 errors.Is 判断
func (m *MiddlewareBuilder) AddError(target error, to error) *MiddlewareBuilder {
	m.mappings = append(m.mappings, mapping{target: target, to: to})
	return m
}

func (m *MiddlewareBuilder) Build() sqlobject.Middleware {
	return func(next sqlobject.Invoker) sqlobject.Invoker {
		return func(ctx context.Context, inv *sqlobject.Invocation) *sqlobject.Result {
			res := next(ctx, inv)
			if res.Err == nil {
				return res
			}
			for _, mp := range m.mappings {
				if errors.Is(res.Err, mp.target) {
					// 只修改 Err, 这样其他中间件还能继续操作
					res.Err = mp.to
					break
				}
			}
			return res
		}
	}
}
