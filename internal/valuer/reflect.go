package valuer

import (
	"reflect"

	"github.com/coderi421/sqlobject/internal/errs"
	"github.com/coderi421/sqlobject/model"
)

// reflectValue 基于反射的 Value
type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装好的，基于反射实现的 Value
func NewReflectValue(val any, meta *model.Model) Value {
	return reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

func (r reflectValue) SetColumns(rows Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(columns) > len(r.meta.ColumnMap) {
		return errs.ErrTooManyReturnedColumns
	}

	// colValues 和 colEleValues 实质上最终都指向同一个对象
	colValues := make([]any, len(columns))
	colEleValues := make([]reflect.Value, len(columns))
	for i, name := range columns {
		fd, ok := r.meta.ColumnMap[name]
		if !ok {
			return errs.NewErrUnknownColumn(name)
		}
		value := reflect.New(fd.Type)
		colValues[i] = value.Interface()
		colEleValues[i] = value.Elem()
	}

	if err = rows.Scan(colValues...); err != nil {
		return err
	}

	for i, name := range columns {
		fd := r.meta.ColumnMap[name]
		r.val.FieldByName(fd.GoName).Set(colEleValues[i])
	}
	return nil
}
