package sqlobject

import (
	"database/sql"

	"github.com/coderi421/sqlobject/engine"
	"github.com/coderi421/sqlobject/handle"
	"github.com/coderi421/sqlobject/internal/valuer/unsafe"
)

type DBOption func(db *DB)

// DB 是 sql.DB 的一个装饰器，持有 HandlerMap 的缓存，执行引擎和中间件
type DB struct {
	db     *sql.DB
	r      Registry
	engine engine.Engine
	mdls   []Middleware
}

// Open 创建一个 DB 实例。
// 默认情况下，该 DB 使用进程级别的 Registry 和基于反射的结果集映射
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return OpenDB(db, opts...)
}

// OpenDB 可以利用 OpenDB 来传入一个 mock 的 DB
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		db:     db,
		r:      defaultRegistry,
		engine: engine.New(),
	}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

// MustOpenDB 创建失败直接 panic
func MustOpenDB(db *sql.DB, opts ...DBOption) *DB {
	res, err := OpenDB(db, opts...)
	if err != nil {
		panic(err)
	}
	return res
}

// DBWithRegistry 测试里面用来隔离 HandlerMap 的缓存
func DBWithRegistry(r Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

func DBWithEngine(e engine.Engine) DBOption {
	return func(db *DB) {
		db.engine = e
	}
}

// DBWithUnsafeValuer 结果集映射使用 unsafe 的实现
func DBWithUnsafeValuer() DBOption {
	return func(db *DB) {
		db.engine = engine.New(engine.WithValuer(unsafe.NewUnsafeValue))
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

// Handle 创建一个按需从连接池获取连接的 Handle
func (db *DB) Handle(opts ...handle.Option) *handle.Handle {
	return handle.New(db.db, opts...)
}

func (db *DB) Close() error {
	return db.db.Close()
}
