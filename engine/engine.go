package engine

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/coderi421/sqlobject/internal/errs"
	"github.com/coderi421/sqlobject/internal/valuer"
	"github.com/coderi421/sqlobject/model"
)

type Option func(e *sqlEngine)

// WithRegistry 替换掉默认的 model.Registry
func WithRegistry(r model.Registry) Option {
	return func(e *sqlEngine) {
		e.r = r
	}
}

// WithValuer 选择结果集映射的实现，默认是反射
func WithValuer(c valuer.Creator) Option {
	return func(e *sqlEngine) {
		e.valCreator = c
	}
}

type sqlEngine struct {
	r          model.Registry
	valCreator valuer.Creator
}

var _ Engine = &sqlEngine{}

// New 基于 database/sql 的默认实现
func New(opts ...Option) Engine {
	e := &sqlEngine{
		r:          model.NewRegistry(),
		valCreator: valuer.NewReflectValue,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *sqlEngine) List(ctx context.Context, ex Executor, st Statement, typ reflect.Type) (reflect.Value, error) {
	rows, err := e.Rows(ctx, ex, st, typ)
	if err != nil {
		return reflect.Value{}, err
	}
	defer func() { _ = rows.Close() }()

	res := reflect.MakeSlice(reflect.SliceOf(typ), 0, 8)
	for rows.Next() {
		res = reflect.Append(res, rows.Value())
	}
	if err = rows.Err(); err != nil {
		return reflect.Value{}, err
	}
	return res, nil
}

func (e *sqlEngine) Rows(ctx context.Context, ex Executor, st Statement, typ reflect.Type) (*Rows, error) {
	decode, err := e.decoder(typ)
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows, decode: decode}, nil
}

// One 没有数据返回 ErrNoRows，多于一行返回 ErrTooManyRows
func (e *sqlEngine) One(ctx context.Context, ex Executor, st Statement, typ reflect.Type) (reflect.Value, error) {
	rows, err := e.Rows(ctx, ex, st, typ)
	if err != nil {
		return reflect.Value{}, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return reflect.Value{}, err
		}
		return reflect.Value{}, errs.ErrNoRows
	}
	val := rows.Value()
	if rows.Next() {
		return reflect.Value{}, errs.ErrTooManyRows
	}
	if err = rows.Err(); err != nil {
		return reflect.Value{}, err
	}
	return val, nil
}

func (e *sqlEngine) Exec(ctx context.Context, ex Executor, st Statement) (sql.Result, error) {
	return ex.ExecContext(ctx, st.SQL, st.Args...)
}

type decodeFunc func(rows *sql.Rows) (reflect.Value, error)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// decoder 结构体和结构体指针按列名映射，其它类型只能有一列
func (e *sqlEngine) decoder(typ reflect.Type) (decodeFunc, error) {
	if st, ptr, ok := asStruct(typ); ok {
		meta, err := e.r.Get(st)
		if err != nil {
			return nil, err
		}
		return func(rows *sql.Rows) (reflect.Value, error) {
			val := reflect.New(st)
			if err := e.valCreator(val.Interface(), meta).SetColumns(rows); err != nil {
				return reflect.Value{}, err
			}
			if ptr {
				return val, nil
			}
			return val.Elem(), nil
		}, nil
	}
	return func(rows *sql.Rows) (reflect.Value, error) {
		cols, err := rows.Columns()
		if err != nil {
			return reflect.Value{}, err
		}
		if len(cols) != 1 {
			return reflect.Value{}, errs.ErrTooManyReturnedColumns
		}
		val := reflect.New(typ)
		if err = rows.Scan(val.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return val.Elem(), nil
	}, nil
}

func asStruct(typ reflect.Type) (reflect.Type, bool, bool) {
	ptr := false
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
		ptr = true
	}
	if typ.Kind() != reflect.Struct || typ == timeType || reflect.PointerTo(typ).Implements(scannerType) {
		return nil, false, false
	}
	return typ, ptr, true
}
