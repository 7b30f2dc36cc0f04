package model

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/coderi421/sqlobject/internal/errs"
)

// Registry 缓存结构体类型到 Model 的映射
type Registry interface {
	// Get 查找元数据模型，没有就解析
	Get(typ reflect.Type) (*Model, error)
	// Register 解析并且覆盖已有的 Model
	Register(typ reflect.Type, opts ...Option) (*Model, error)
}

// reflect.Type 作为 key 可以解决命名冲突的问题
type registry struct {
	models sync.Map
}

func NewRegistry() Registry {
	return &registry{}
}

// Get 支持结构体和结构体指针。两个 goroutine 同时解析同一个类型的时候，先存进去的生效
func (r *registry) Get(typ reflect.Type) (*Model, error) {
	typ, err := structOf(typ)
	if err != nil {
		return nil, err
	}
	if m, ok := r.models.Load(typ); ok {
		return m.(*Model), nil
	}
	m, err := r.parseModel(typ)
	if err != nil {
		return nil, err
	}
	actual, _ := r.models.LoadOrStore(typ, m)
	return actual.(*Model), nil
}

// Register 解析之后应用 opts，覆盖缓存里面的 Model
func (r *registry) Register(typ reflect.Type, opts ...Option) (*Model, error) {
	typ, err := structOf(typ)
	if err != nil {
		return nil, err
	}
	m, err := r.parseModel(typ)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err = opt(m); err != nil {
			return nil, err
		}
	}
	r.models.Store(typ, m)
	return m, nil
}

// structOf 只支持结构体或者一级结构体指针
func structOf(typ reflect.Type) (reflect.Type, error) {
	if typ == nil {
		return nil, errs.ErrPointerOnly
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	return typ, nil
}

// parseModel
// orm:"key1=value1,key2=value2"
func (r *registry) parseModel(typ reflect.Type) (*Model, error) {
	numField := typ.NumField()
	fields := make([]*Field, 0, numField)
	fds := make(map[string]*Field, numField)
	colMap := make(map[string]*Field, numField)

	for i := 0; i < numField; i++ {
		fdStruct := typ.Field(i)
		// 私有字段没办法通过反射赋值
		if !fdStruct.IsExported() {
			continue
		}
		if fdStruct.Tag.Get(tagORMName) == tagIgnore {
			continue
		}
		tags, err := r.parseTag(fdStruct.Tag)
		if err != nil {
			return nil, err
		}

		colName := tags[tagKeyColumn]
		if colName == "" {
			// ItemId -> item_id
			colName = underscoreName(fdStruct.Name)
		}

		f := &Field{
			ColName: colName,
			GoName:  fdStruct.Name,
			Type:    fdStruct.Type,
			Offset:  fdStruct.Offset,
		}
		fields = append(fields, f)
		fds[fdStruct.Name] = f
		colMap[colName] = f
	}

	return &Model{
		Type:      typ,
		Fields:    fields,
		FieldMap:  fds,
		ColumnMap: colMap,
	}, nil
}

// parseTag parses the given struct tag and returns a map of key-value pairs.
// Return an empty map so that the caller doesn't need to check for nil.
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag := tag.Get(tagORMName)
	if ormTag == "" {
		return map[string]string{}, nil
	}

	res := make(map[string]string, 1)
	pairs := strings.Split(ormTag, ",")
	for _, pair := range pairs {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		res[kv[0]] = kv[1]
	}

	return res, nil
}

// underscoreName UserName -> user_name
// 连续的大写字母不会合并，ID -> i_d，所以这种字段请使用 column 标签
func underscoreName(name string) string {
	var buf []byte
	for i, v := range name {
		if unicode.IsUpper(v) {
			if i != 0 {
				buf = append(buf, '_')
			}
			buf = append(buf, byte(unicode.ToLower(v)))
		} else {
			buf = append(buf, byte(v))
		}
	}
	return string(buf)
}

// WithColumnName 修改 field 对应的列名
func WithColumnName(field, columnName string) Option {
	return func(model *Model) error {
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		delete(model.ColumnMap, fd.ColName)
		fd.ColName = columnName
		model.ColumnMap[columnName] = fd
		return nil
	}
}
