package unsafe

import (
	"reflect"
	"unsafe"

	"github.com/coderi421/sqlobject/internal/errs"
	"github.com/coderi421/sqlobject/internal/valuer"
	"github.com/coderi421/sqlobject/model"
)

type unsafeValue struct {
	// 使用 unsafe.Pointer 而不是 uintptr，GC 移动对象之后 uintptr 就失效了
	addr unsafe.Pointer
	meta *model.Model
}

var _ valuer.Creator = NewUnsafeValue

// NewUnsafeValue 直接按照字段偏移量写内存
func NewUnsafeValue(val any, meta *model.Model) valuer.Value {
	return unsafeValue{
		addr: reflect.ValueOf(val).UnsafePointer(),
		meta: meta,
	}
}

func (u unsafeValue) SetColumns(rows valuer.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(columns) > len(u.meta.ColumnMap) {
		return errs.ErrTooManyReturnedColumns
	}

	colValues := make([]any, len(columns))
	for i, column := range columns {
		fd, ok := u.meta.ColumnMap[column]
		if !ok {
			return errs.NewErrUnknownColumn(column)
		}
		ptr := unsafe.Add(u.addr, fd.Offset)
		colValues[i] = reflect.NewAt(fd.Type, ptr).Interface()
	}
	return rows.Scan(colValues...)
}
