package engine

import (
	"database/sql"
	"reflect"
)

// Rows 只能向前遍历一次
type Rows struct {
	rows   *sql.Rows
	decode decodeFunc
	cur    reflect.Value
	err    error
	closed bool
}

// Next 读取并解码下一行。出错或者读完之后会自动关闭
func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	if !r.rows.Next() {
		r.err = r.rows.Err()
		_ = r.Close()
		return false
	}
	r.cur, r.err = r.decode(r.rows)
	if r.err != nil {
		_ = r.Close()
		return false
	}
	return true
}

// Value 当前行
func (r *Rows) Value() reflect.Value {
	return r.cur
}

func (r *Rows) Err() error {
	return r.err
}

func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rows.Close()
}
