package sqlobject

import (
	"context"
	"database/sql"
)

type Record struct {
	Id   int64  `orm:"column=id"`
	Name string `orm:"column=name"`
}

type Finder interface {
	Find(ctx context.Context, id int64) (*Record, error)
	FindAll(ctx context.Context) ([]*Record, error)
	Insert(ctx context.Context, r *Record) (int64, error)
	Close() error
}

type finder struct {
	*Object
}

func (f finder) Find(ctx context.Context, id int64) (*Record, error) {
	return Call[*Record](f.Object, "Find", ctx, id)
}

func (f finder) FindAll(ctx context.Context) ([]*Record, error) {
	return Call[[]*Record](f.Object, "FindAll", ctx)
}

func (f finder) Insert(ctx context.Context, r *Record) (int64, error) {
	return Call[int64](f.Object, "Insert", ctx, r)
}

var finderSQL = SQL{
	"Find":    SQLQuery("SELECT `id`,`name` FROM `record` WHERE `id` = ?"),
	"FindAll": SQLQuery("SELECT `id`,`name` FROM `record` ORDER BY `id`"),
	"Insert":  SQLUpdate("INSERT INTO `record` (`id`,`name`) VALUES (?,?)").Bind("Id", "Name"),
}

func newFinderDef() *Definition[Finder] {
	return Define[Finder](func(o *Object) Finder { return finder{o} }, finderSQL)
}

// RecordDao 覆盖全部类别的方法
type RecordDao interface {
	Transactional
	GetHandle
	ByName(ctx context.Context, name string) (*Query[*Record], error)
	Stream(ctx context.Context) (*Iterator[*Record], error)
	Count(ctx context.Context) (int64, error)
	Names(ctx context.Context) ([]string, error)
	Rename(ctx context.Context, id int64, name string) (sql.Result, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

type recordDao struct {
	*Object
}

func (r recordDao) ByName(ctx context.Context, name string) (*Query[*Record], error) {
	return Call[*Query[*Record]](r.Object, "ByName", ctx, name)
}

func (r recordDao) Stream(ctx context.Context) (*Iterator[*Record], error) {
	return Call[*Iterator[*Record]](r.Object, "Stream", ctx)
}

func (r recordDao) Count(ctx context.Context) (int64, error) {
	return Call[int64](r.Object, "Count", ctx)
}

func (r recordDao) Names(ctx context.Context) ([]string, error) {
	return Call[[]string](r.Object, "Names", ctx)
}

func (r recordDao) Rename(ctx context.Context, id int64, name string) (sql.Result, error) {
	return Call[sql.Result](r.Object, "Rename", ctx, name, id)
}

func (r recordDao) Delete(ctx context.Context, id int64) error {
	return Exec(r.Object, "Delete", ctx, id)
}

var recordDaoSQL = SQL{
	"ByName": SQLQuery("SELECT `id`,`name` FROM `record` WHERE `name` = ?"),
	"Stream": SQLQuery("SELECT `id`,`name` FROM `record`"),
	"Count":  SQLQuery("SELECT COUNT(*) FROM `record`"),
	"Names":  SQLQuery("SELECT `name` FROM `record`"),
	"Rename": SQLUpdate("UPDATE `record` SET `name` = ? WHERE `id` = ?"),
	"Delete": SQLUpdate("DELETE FROM `record` WHERE `id` = ?"),
}

func newRecordDaoDef() *Definition[RecordDao] {
	return Define[RecordDao](func(o *Object) RecordDao { return recordDao{o} }, recordDaoSQL)
}

// Dao 泛型接口，组合之后返回值要替换成具体类型
type Dao[T any] interface {
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context) ([]T, error)
}

type GenericRecordDao interface {
	Dao[*Record]
	Count(ctx context.Context) (int64, error)
}
