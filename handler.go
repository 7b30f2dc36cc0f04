package sqlobject

import (
	"context"
	"reflect"

	"github.com/coderi421/sqlobject/engine"
	"github.com/coderi421/sqlobject/handle"
	"github.com/coderi421/sqlobject/internal/errs"
)

// Handler 执行一个方法的语义。Handler 在分类的时候创建，除了方法的元数据之外没有状态
type Handler interface {
	Invoke(ctx context.Context, h *handle.Handle, o *Object, args []any) (any, error)
}

func newQueryHandler(kind HandlerKind, m Method, tag Tag) Handler {
	sh := sqlHandler{method: m, tag: tag}
	switch kind {
	case KindSingleCursorQuery:
		return cursorHandler{sh}
	case KindCollectionQuery:
		return listHandler{sh}
	case KindLazySequenceQuery:
		return iteratorHandler{sh}
	default:
		return scalarHandler{sh}
	}
}

// sqlHandler 带 SQL 的 handler 公共部分
type sqlHandler struct {
	method Method
	tag    Tag
}

func (s sqlHandler) statement(args []any) (engine.Statement, error) {
	args, err := bindArgs(args, s.tag.Fields)
	if err != nil {
		return engine.Statement{}, err
	}
	return engine.Statement{SQL: s.tag.SQL, Args: args}, nil
}

// prepare 生成 SQL 并且拿到执行器
func (s sqlHandler) prepare(ctx context.Context, h *handle.Handle, args []any) (engine.Executor, engine.Statement, error) {
	st, err := s.statement(args)
	if err != nil {
		return nil, st, err
	}
	ex, err := h.Executor(ctx)
	return ex, st, err
}

// bindArgs 没有 fields 的时候原样返回；否则结构体参数按照 fields 展开
func bindArgs(args []any, fields []string) ([]any, error) {
	if len(fields) == 0 {
		return args, nil
	}
	res := make([]any, 0, len(args)+len(fields))
	for _, arg := range args {
		val := reflect.ValueOf(arg)
		if val.Kind() == reflect.Pointer && !val.IsNil() {
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			res = append(res, arg)
			continue
		}
		for _, name := range fields {
			fd := val.FieldByName(name)
			if !fd.IsValid() {
				return nil, errs.NewErrUnknownField(name)
			}
			res = append(res, fd.Interface())
		}
	}
	return res, nil
}

// cursorHandler 返回还没有执行的 *Query[R]，什么时候执行由调用者决定
type cursorHandler struct {
	sqlHandler
}

func (c cursorHandler) Invoke(_ context.Context, h *handle.Handle, o *Object, args []any) (any, error) {
	st, err := c.statement(args)
	if err != nil {
		return nil, err
	}
	q := reflect.New(c.method.Out.Elem())
	q.Interface().(cursorBinder).bindQuery(h, o.db.engine, st)
	return q.Interface(), nil
}

// listHandler 立刻执行，返回全部结果
type listHandler struct {
	sqlHandler
}

func (l listHandler) Invoke(ctx context.Context, h *handle.Handle, o *Object, args []any) (any, error) {
	ex, st, err := l.prepare(ctx, h, args)
	if err != nil {
		return nil, err
	}
	out := l.method.Out
	res, err := o.db.engine.List(ctx, ex, st, out.Elem())
	if err != nil {
		return nil, err
	}
	if res.Type() != out {
		res = res.Convert(out)
	}
	return res.Interface(), nil
}

// iteratorHandler 返回 *Iterator[R]。迭代器持有 handle 的引用，直到读完或者关闭
type iteratorHandler struct {
	sqlHandler
}

func (i iteratorHandler) Invoke(ctx context.Context, h *handle.Handle, o *Object, args []any) (any, error) {
	h.Retain(handle.TagIterator)
	ex, st, err := i.prepare(ctx, h, args)
	if err != nil {
		_ = h.Release(handle.TagIterator)
		return nil, err
	}
	it := reflect.New(i.method.Out.Elem())
	binder := it.Interface().(iteratorBinder)
	rows, err := o.db.engine.Rows(ctx, ex, st, binder.elemType())
	if err != nil {
		_ = h.Release(handle.TagIterator)
		return nil, err
	}
	binder.bindRows(h, rows)
	return it.Interface(), nil
}

// scalarHandler 返回唯一的一个值
type scalarHandler struct {
	sqlHandler
}

func (s scalarHandler) Invoke(ctx context.Context, h *handle.Handle, o *Object, args []any) (any, error) {
	ex, st, err := s.prepare(ctx, h, args)
	if err != nil {
		return nil, err
	}
	res, err := o.db.engine.One(ctx, ex, st, s.method.Out)
	if err != nil {
		return nil, err
	}
	return res.Interface(), nil
}

// updateHandler 返回受影响的行数，sql.Result 或者只有 error
type updateHandler struct {
	sqlHandler
}

func (u updateHandler) Invoke(ctx context.Context, h *handle.Handle, o *Object, args []any) (any, error) {
	ex, st, err := u.prepare(ctx, h, args)
	if err != nil {
		return nil, err
	}
	res, err := o.db.engine.Exec(ctx, ex, st)
	if err != nil {
		return nil, err
	}
	out := u.method.Out
	switch {
	case out == nil:
		return nil, nil
	case out == sqlResultType:
		return res, nil
	default:
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(affected).Convert(out).Interface(), nil
	}
}

func isRowsAffected(typ reflect.Type) bool {
	kind := typ.Kind()
	return kind == reflect.Int || kind == reflect.Int64
}

// closeHandler 解除对象和 handle 的绑定，只有第一次调用生效。
// 对象自己创建的 handle 会被一起关闭
type closeHandler struct{}

func (closeHandler) Invoke(_ context.Context, h *handle.Handle, o *Object, _ []any) (any, error) {
	if !o.closed.CompareAndSwap(false, true) {
		return nil, nil
	}
	if o.owned {
		return nil, h.Close()
	}
	return nil, nil
}
