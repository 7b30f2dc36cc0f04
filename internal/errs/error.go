package errs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrPointerOnly 只支持一级指针作为输入
	ErrPointerOnly = errors.New("sqlobject: 只支持指向结构体的一级指针")
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errors.New("sqlobject: 未找到数据")
	// ErrTooManyRows 单值查询返回了多行
	ErrTooManyRows = errors.New("sqlobject: 单值查询返回了多行数据")
	// ErrTooManyReturnedColumns 返回的列多过结构体的字段
	ErrTooManyReturnedColumns = errors.New("sqlobject: 过多列")

	ErrUnsupportedMethod = errors.New("sqlobject: 不支持的方法")
	ErrUnknownMethod     = errors.New("sqlobject: 未知方法")
	ErrInvalidSignature  = errors.New("sqlobject: 非法的方法签名")
	ErrNotInterface      = errors.New("sqlobject: 只支持接口类型")
	ErrInvalidArgument   = errors.New("sqlobject: 非法参数")
	ErrObjectClosed      = errors.New("sqlobject: 对象已经关闭")
	ErrHandleClosed      = errors.New("sqlobject: handle 已经关闭")
	ErrNoTx              = errors.New("sqlobject: 没有进行中的事务")
	ErrTxInProgress      = errors.New("sqlobject: 事务已经开启")
	ErrIteratorDone      = errors.New("sqlobject: 迭代器已经被消费")
	ErrHandlerPanic      = errors.New("sqlobject: handler panic")
	ErrConflictingSQL    = errors.New("sqlobject: 同一个接口注册了不同的 SQL")
)

// NewErrUnsupportedMethod 方法既没有 SQL 标注，也不是 Close 或者已知的 mixin 方法
func NewErrUnsupportedMethod(typ reflect.Type, method string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnsupportedMethod, typ, method)
}

// NewErrUnknownMethod SQL 标注指向了接口上不存在的方法
func NewErrUnknownMethod(typ reflect.Type, method string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, typ, method)
}

func NewErrInvalidSignature(typ reflect.Type, method string, reason string) error {
	return fmt.Errorf("%w: %s.%s %s", ErrInvalidSignature, typ, method, reason)
}

// NewErrConflictingSQL 同一个接口类型有两个 SQL 不一样的 Definition
func NewErrConflictingSQL(typ reflect.Type) error {
	return fmt.Errorf("%w: %v", ErrConflictingSQL, typ)
}

func NewErrNotInterface(typ reflect.Type) error {
	return fmt.Errorf("%w: %v", ErrNotInterface, typ)
}

// NewErrNotSQLObject Close 的参数不是 Build 出来的对象
func NewErrNotSQLObject(val any) error {
	return fmt.Errorf("%w: %T 不是 sql object", ErrInvalidArgument, val)
}

func NewErrHandlerPanic(val any) error {
	return fmt.Errorf("%w: %v", ErrHandlerPanic, val)
}

func NewErrUnknownField(name string) error {
	return fmt.Errorf("sqlobject: 未知字段 %s", name)
}

func NewErrUnknownColumn(name string) error {
	return fmt.Errorf("sqlobject: 未知列 %s", name)
}

// NewErrInvalidTagContent 标签内容格式不对
func NewErrInvalidTagContent(pair string) error {
	return fmt.Errorf("sqlobject: 非法标签值 %s", pair)
}
