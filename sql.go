package sqlobject

// Intent 方法声明的意图
type Intent uint8

const (
	IntentQuery Intent = iota + 1
	IntentUpdate
)

// Tag 附加在方法上的元数据，代替注解
type Tag struct {
	Intent Intent
	SQL    string
	// Fields 结构体参数按照这些字段展开成 SQL 参数
	Fields []string
}

// SQL 方法名到 Tag 的映射
type SQL map[string]Tag

// SQLQuery 标记一个查询方法，返回值的类型决定怎么执行
func SQLQuery(query string) Tag {
	return Tag{Intent: IntentQuery, SQL: query}
}

// SQLUpdate 标记一个写方法
func SQLUpdate(query string) Tag {
	return Tag{Intent: IntentUpdate, SQL: query}
}

// Bind 结构体参数按照 fields 的顺序展开
//
//	SQLUpdate("INSERT INTO `record` (`id`,`name`) VALUES (?,?)").Bind("Id", "Name")
func (t Tag) Bind(fields ...string) Tag {
	t.Fields = append([]string(nil), fields...)
	return t
}
