package sqlobject

import "github.com/coderi421/sqlobject/internal/errs"

// 将内部的 sentinel error 暴露出去
var (
	ErrUnsupportedMethod = errs.ErrUnsupportedMethod
	ErrUnknownMethod     = errs.ErrUnknownMethod
	ErrInvalidSignature  = errs.ErrInvalidSignature
	ErrNotInterface      = errs.ErrNotInterface
	ErrInvalidArgument   = errs.ErrInvalidArgument
	// ErrNoRows 单值查询没有找到数据
	ErrNoRows = errs.ErrNoRows
	// ErrTooManyRows 单值查询找到了多行数据
	ErrTooManyRows  = errs.ErrTooManyRows
	ErrObjectClosed = errs.ErrObjectClosed
	ErrHandleClosed = errs.ErrHandleClosed
	ErrNoTx         = errs.ErrNoTx
	ErrTxInProgress = errs.ErrTxInProgress
	ErrIteratorDone = errs.ErrIteratorDone
	ErrHandlerPanic = errs.ErrHandlerPanic
	// ErrConflictingSQL 同一个接口只能有一份 SQL
	ErrConflictingSQL = errs.ErrConflictingSQL
)
