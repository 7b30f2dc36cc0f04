package querylog

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/coderi421/sqlobject"
)

type MiddlewareBuilder struct {
	logFunc func(log string)
	// slow 大于 0 的时候只记录慢调用
	slow time.Duration
	args bool
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: func(l string) {
			log.Println(l)
		},
		args: true,
	}
}

// LogFunc 这里如果需要配置的参数比较多，可以使用 函数选项模式
func (m *MiddlewareBuilder) LogFunc(fn func(log string)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

// SlowThreshold 只记录执行时间超过 d 的调用
func (m *MiddlewareBuilder) SlowThreshold(d time.Duration) *MiddlewareBuilder {
	m.slow = d
	return m
}

// WithoutArgs 参数里面可能有敏感数据
func (m *MiddlewareBuilder) WithoutArgs() *MiddlewareBuilder {
	m.args = false
	return m
}

func (m *MiddlewareBuilder) Build() sqlobject.Middleware {
	if m.logFunc == nil {
		m.logFunc = func(l string) {
			log.Println(l)
		}
	}
	return func(next sqlobject.Invoker) sqlobject.Invoker {
		return func(ctx context.Context, inv *sqlobject.Invocation) *sqlobject.Result {
			start := time.Now()
			res := next(ctx, inv)
			duration := time.Since(start)
			if m.slow > 0 && duration < m.slow {
				return res
			}

			l := queryLog{
				Type:       inv.Type.String(),
				Method:     inv.Method,
				Kind:       inv.Kind.String(),
				Capability: inv.Capability,
				SQL:        inv.SQL,
				Duration:   duration.String(),
			}
			if inv.Handle != nil {
				l.Handle = inv.Handle.ID()
			}
			if m.args {
				l.Args = inv.Args
			}
			if res.Err != nil {
				l.Err = res.Err.Error()
			}
			data, err := json.Marshal(l)
			if err != nil {
				// 参数里面有不能序列化的值，比如 InTransaction 的函数
				l.Args = nil
				data, _ = json.Marshal(l)
			}
			m.logFunc(string(data))
			return res
		}
	}
}

type queryLog struct {
	Type       string `json:"type"`
	Method     string `json:"method"`
	Kind       string `json:"kind"`
	Capability string `json:"capability,omitempty"`
	SQL        string `json:"sql,omitempty"`
	Args       []any  `json:"args,omitempty"`
	Handle     string `json:"handle,omitempty"`
	Duration   string `json:"duration"`
	Err        string `json:"error,omitempty"`
}
