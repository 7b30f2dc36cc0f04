// Package sqlobject 根据方法的 SQL 元数据和返回值类型，把一个接口变成可以直接使用的 DAO。
//
//	type Finder interface {
//		Find(ctx context.Context, id int64) (*Record, error)
//		FindAll(ctx context.Context) ([]*Record, error)
//		Insert(ctx context.Context, r *Record) (int64, error)
//		Close() error
//	}
//
//	type finder struct{ *sqlobject.Object }
//
//	func (f finder) Find(ctx context.Context, id int64) (*Record, error) {
//		return sqlobject.Call[*Record](f.Object, "Find", ctx, id)
//	}
//
//	var finders = sqlobject.Define[Finder](func(o *sqlobject.Object) Finder { return finder{o} }, sqlobject.SQL{
//		"Find": sqlobject.SQLQuery("SELECT * FROM `record` WHERE `id` = ?"),
//		...
//	})
//
// 每个接口类型只在第一次 Build 的时候分类一次，之后的调用直接查缓存。
package sqlobject

import (
	"reflect"

	"github.com/coderi421/sqlobject/handle"
	"github.com/coderi421/sqlobject/internal/errs"
)

// Definition 接口类型，它的 SQL 元数据，以及适配器的构造函数。
// 同一个接口类型只应该有一个 Definition
type Definition[T any] struct {
	typ  reflect.Type
	sqls SQL
	ctor func(o *Object) T
}

// Define 不做任何检查，接口的问题在第一次 Build 的时候暴露
func Define[T any](ctor func(o *Object) T, sqls SQL) *Definition[T] {
	return &Definition[T]{
		typ:  reflect.TypeFor[T](),
		sqls: sqls,
		ctor: ctor,
	}
}

func (d *Definition[T]) Type() reflect.Type {
	return d.typ
}

// Build 创建绑定在 h 上的对象，h 的生命周期由调用者管理
func Build[T any](db *DB, def *Definition[T], h *handle.Handle) (T, error) {
	return build(db, def, h, false)
}

// Attach 创建一个自己持有 Handle 的对象，每次调用按需从连接池拿连接，Close 的时候关闭 Handle
func Attach[T any](db *DB, def *Definition[T]) (T, error) {
	return build(db, def, db.Handle(), true)
}

func build[T any](db *DB, def *Definition[T], h *handle.Handle, owned bool) (T, error) {
	var t T
	if h == nil || def == nil || def.ctor == nil {
		return t, errs.ErrInvalidArgument
	}
	hm, err := db.r.Get(def.typ, def.sqls)
	if err != nil {
		return t, err
	}
	o := &Object{
		hm:    hm,
		h:     h,
		db:    db,
		owned: owned,
	}
	res := def.ctor(o)
	// 适配器必须嵌入 *Object
	if _, ok := any(res).(internalCloser); !ok {
		return t, errs.NewErrNotSQLObject(res)
	}
	return res, nil
}

// Close 关闭 Build 或者 Attach 出来的对象，其它任何值都会返回 ErrInvalidArgument
func Close(obj any) error {
	closer, ok := obj.(internalCloser)
	if !ok {
		return errs.NewErrNotSQLObject(obj)
	}
	return closer.closeObject()
}
