package sqlobject

import (
	"reflect"
	"sort"

	"github.com/coderi421/sqlobject/internal/errs"
)

// binding 一个方法和它的 Handler
type binding struct {
	method     Method
	kind       HandlerKind
	capability string
	tag        Tag
	handler    Handler
}

func (b *binding) closes() bool {
	_, ok := b.handler.(closeHandler)
	return ok
}

// HandlerMap 一个接口类型的全部方法到 Handler 的映射，发布之后不再修改
type HandlerMap struct {
	typ reflect.Type
	// sqls 分类时使用的 SQL，Registry 用它发现冲突的 Definition
	sqls     SQL
	bindings map[string]*binding
}

func (m *HandlerMap) Type() reflect.Type {
	return m.typ
}

// Kind 返回方法的类别
func (m *HandlerMap) Kind(method string) (HandlerKind, bool) {
	b, ok := m.bindings[method]
	if !ok {
		return 0, false
	}
	return b.kind, true
}

// Methods 按名字排序
func (m *HandlerMap) Methods() []string {
	res := make([]string, 0, len(m.bindings))
	for name := range m.bindings {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// classify 把接口的每一个方法分到唯一的类别。
// 结果只取决于 typ 和 sqls，同样的输入总是得到结构上一样的 HandlerMap
func classify(typ reflect.Type, sqls SQL) (*HandlerMap, error) {
	if typ == nil || typ.Kind() != reflect.Interface {
		return nil, errs.NewErrNotInterface(typ)
	}

	names := make([]string, 0, len(sqls))
	for name := range sqls {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := typ.MethodByName(name); !ok {
			return nil, errs.NewErrUnknownMethod(typ, name)
		}
	}

	hm := &HandlerMap{
		typ:      typ,
		sqls:     sqls,
		bindings: make(map[string]*binding, typ.NumMethod()+len(mixinHandlers)),
	}
	// 嵌入的接口已经被展开，泛型参数也已经替换好了
	for i := 0; i < typ.NumMethod(); i++ {
		b, err := classifyMethod(typ, newMethod(typ.Method(i)), sqls)
		if err != nil {
			return nil, err
		}
		hm.bindings[b.method.Name] = b
	}

	// *Object 总是实现全部的 mixin 能力，接口自己声明的方法优先
	for _, mx := range mixinHandlers {
		if _, ok := hm.bindings[mx.method.Name]; ok {
			continue
		}
		hm.bindings[mx.method.Name] = &binding{
			method:     mx.method,
			kind:       KindMixin,
			capability: mx.capability,
			handler:    mx.handler,
		}
	}
	return hm, nil
}

func classifyMethod(typ reflect.Type, m Method, sqls SQL) (*binding, error) {
	if tag, ok := sqls[m.Name]; ok {
		switch tag.Intent {
		case IntentQuery:
			if m.NumOut != 2 || !m.Error {
				return nil, errs.NewErrInvalidSignature(typ, m.Name, "查询方法必须返回 (R, error)")
			}
			kind := queryKind(m.Out)
			return &binding{
				method:  m,
				kind:    kind,
				tag:     tag,
				handler: newQueryHandler(kind, m, tag),
			}, nil
		case IntentUpdate:
			if !m.Error || (m.Out != nil && m.Out != sqlResultType && !isRowsAffected(m.Out)) {
				return nil, errs.NewErrInvalidSignature(typ, m.Name,
					"写方法必须返回 error，(int64, error) 或者 (sql.Result, error)")
			}
			return &binding{
				method:  m,
				kind:    KindUpdate,
				tag:     tag,
				handler: updateHandler{sqlHandler{method: m, tag: tag}},
			}, nil
		}
	}

	if m.isClose() {
		return &binding{
			method:  m,
			kind:    KindInternalClose,
			handler: closeHandler{},
		}, nil
	}

	if mx, ok := mixinHandlers[mixinKey{name: m.Name, typ: m.Type}]; ok {
		return &binding{
			method:     m,
			kind:       KindMixin,
			capability: mx.capability,
			handler:    mx.handler,
		}, nil
	}

	return nil, errs.NewErrUnsupportedMethod(typ, m.Name)
}

// queryKind 游标、集合、迭代器，其它都当作单值
func queryKind(out reflect.Type) HandlerKind {
	switch {
	case out.Implements(cursorType):
		return KindSingleCursorQuery
	case out.Kind() == reflect.Slice && out.Elem().Kind() != reflect.Uint8:
		return KindCollectionQuery
	case out.Implements(iteratorType):
		return KindLazySequenceQuery
	default:
		return KindScalarQuery
	}
}
