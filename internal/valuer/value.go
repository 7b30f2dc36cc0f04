package valuer

import "github.com/coderi421/sqlobject/model"

// Rows 是 *sql.Rows 里面 valuer 用到的部分
type Rows interface {
	Columns() ([]string, error)
	Scan(dest ...any) error
}

// Value 是对结构体实例的内部抽象
type Value interface {
	// SetColumns 将当前行的数据设置到结构体上
	SetColumns(rows Rows) error
}

// Creator 输入 val 必须是指向结构体实例的指针
type Creator func(val any, meta *model.Model) Value
