package sqlobject

import (
	"reflect"
	"slices"

	"github.com/coderi421/sqlobject/internal/errs"
	"github.com/gotomicro/ekit/syncx"
)

// Registry 缓存每个接口类型的 HandlerMap
type Registry interface {
	// Get 返回 typ 的 HandlerMap，第一次请求的时候才分类。
	// 分类失败不会缓存任何东西。缓存里面的 SQL 和 sqls 不一样的时候返回 ErrConflictingSQL
	Get(typ reflect.Type, sqls SQL) (*HandlerMap, error)
}

// defaultRegistry 进程级别的缓存，测试可以用 DBWithRegistry 换掉
var defaultRegistry = NewRegistry()

// registry 不给分类过程加锁。两个 goroutine 同时分类同一个类型的时候，
// 先发布的那个被保留，另一个直接丢掉，因为分类的结果只取决于类型
type registry struct {
	handlers syncx.Map[reflect.Type, *HandlerMap]
}

func NewRegistry() Registry {
	return &registry{}
}

func (r *registry) Get(typ reflect.Type, sqls SQL) (*HandlerMap, error) {
	if hm, ok := r.handlers.Load(typ); ok {
		return checkSQL(hm, sqls)
	}
	hm, err := classify(typ, sqls)
	if err != nil {
		return nil, err
	}
	actual, loaded := r.handlers.LoadOrStore(typ, hm)
	if loaded {
		return checkSQL(actual, sqls)
	}
	return actual, nil
}

func checkSQL(hm *HandlerMap, sqls SQL) (*HandlerMap, error) {
	if !sameSQL(hm.sqls, sqls) {
		return nil, errs.NewErrConflictingSQL(hm.typ)
	}
	return hm, nil
}

// sameSQL nil 和空的 SQL 是一样的
func sameSQL(a, b SQL) bool {
	if len(a) != len(b) {
		return false
	}
	for name, ta := range a {
		tb, ok := b[name]
		if !ok || ta.Intent != tb.Intent || ta.SQL != tb.SQL || !slices.Equal(ta.Fields, tb.Fields) {
			return false
		}
	}
	return true
}
