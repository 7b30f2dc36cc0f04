package sqlobject

import (
	"context"
	"database/sql"
	"reflect"
)

var (
	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	sqlResultType = reflect.TypeOf((*sql.Result)(nil)).Elem()
	cursorType    = reflect.TypeOf((*cursorBinder)(nil)).Elem()
	iteratorType  = reflect.TypeOf((*iteratorBinder)(nil)).Elem()
)

// HandlerKind 方法被分到的类别，每个方法只有一个类别
type HandlerKind uint8

const (
	KindSingleCursorQuery HandlerKind = iota + 1
	KindCollectionQuery
	KindLazySequenceQuery
	KindScalarQuery
	KindUpdate
	KindInternalClose
	KindMixin
)

func (k HandlerKind) String() string {
	switch k {
	case KindSingleCursorQuery:
		return "cursor"
	case KindCollectionQuery:
		return "collection"
	case KindLazySequenceQuery:
		return "iterator"
	case KindScalarQuery:
		return "scalar"
	case KindUpdate:
		return "update"
	case KindInternalClose:
		return "close"
	case KindMixin:
		return "mixin"
	default:
		return "unknown"
	}
}

// IsQuery 是否是查询类的方法
func (k HandlerKind) IsQuery() bool {
	return k >= KindSingleCursorQuery && k <= KindScalarQuery
}

// Method 接口上一个方法的签名，泛型参数已经被替换成具体类型
type Method struct {
	Name string
	// Type 方法的 func 类型，不包含接收器
	Type reflect.Type
	// Context 第一个参数是不是 context.Context
	Context bool
	// In 除了 context 以外的参数
	In []reflect.Type
	// Out 第一个不是 error 的返回值，没有就是 nil
	Out    reflect.Type
	Error  bool
	NumOut int
}

func newMethod(m reflect.Method) Method {
	ft := m.Type
	res := Method{
		Name:   m.Name,
		Type:   ft,
		NumOut: ft.NumOut(),
	}
	start := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		res.Context = true
		start = 1
	}
	for i := start; i < ft.NumIn(); i++ {
		res.In = append(res.In, ft.In(i))
	}
	switch ft.NumOut() {
	case 1:
		if ft.Out(0) == errorType {
			res.Error = true
		} else {
			res.Out = ft.Out(0)
		}
	case 2:
		res.Out = ft.Out(0)
		res.Error = ft.Out(1) == errorType
	}
	return res
}

// isClose Close() 或者 Close() error
func (m Method) isClose() bool {
	if m.Name != "Close" || m.Type.NumIn() != 0 {
		return false
	}
	return m.NumOut == 0 || (m.NumOut == 1 && m.Error)
}
