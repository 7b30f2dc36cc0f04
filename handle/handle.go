package handle

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coderi421/sqlobject/engine"
	"github.com/coderi421/sqlobject/internal/errs"
	"github.com/google/uuid"
)

// 常用的 retain 标签
const (
	TagTopLevel    = "top-level"
	TagTransaction = "transaction"
	TagIterator    = "iterator"
	TagQuery       = "query"
)

// Connector 按需获取连接，*sql.DB 就是一个 Connector
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Option 配置 Handle
type Option func(h *Handle)

// WithID 使用指定的 ID，默认是随机的 UUID
func WithID(id string) Option {
	return func(h *Handle) {
		h.id = id
	}
}

// WithTxOptions 开启事务时使用的选项
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(h *Handle) {
		h.txOpts = opts
	}
}

// Handle 代表一个逻辑上的数据库连接或者事务上下文。
//
// 引用计数由 Retain 和 Release 成对维护。按需模式下，第一次使用的时候才从
// Connector 拿连接，计数回到 0 并且没有进行中的事务时把连接还回去。
type Handle struct {
	id     string
	refs   atomic.Int64
	txOpts *sql.TxOptions

	mu        sync.Mutex
	tags      map[string]int
	connector Connector
	conn      *sql.Conn
	// pinned 是调用者给的执行器，Handle 不负责关闭它
	pinned engine.Executor
	tx     *sql.Tx
	closed bool
}

// New 创建一个按需获取连接的 Handle
func New(connector Connector, opts ...Option) *Handle {
	h := &Handle{
		connector: connector,
	}
	h.init(opts)
	return h
}

// Pin 创建一个绑定在已有执行器上的 Handle，例如 *sql.Conn 或者 *sql.Tx。
// 执行器的生命周期由调用者管理。绑定在 *sql.Tx 上的 Handle 不能再开启事务。
func Pin(ex engine.Executor, opts ...Option) *Handle {
	h := &Handle{
		pinned: ex,
	}
	h.init(opts)
	return h
}

func (h *Handle) init(opts []Option) {
	h.id = uuid.NewString()
	h.tags = make(map[string]int, 4)
	for _, opt := range opts {
		opt(h)
	}
}

func (h *Handle) ID() string {
	return h.id
}

// Retain 增加一次引用
func (h *Handle) Retain(tag string) {
	h.refs.Add(1)
	h.mu.Lock()
	h.tags[tag]++
	h.mu.Unlock()
}

// Release 释放一次引用，计数变成负数说明调用方没有成对调用，直接 panic。
// 计数回到 0 的时候，按需获取的连接会被还回连接池。
func (h *Handle) Release(tag string) error {
	n := h.refs.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("sqlobject: handle %s 引用计数变成了负数, tag %s", h.id, tag))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tags[tag]--; h.tags[tag] <= 0 {
		delete(h.tags, tag)
	}
	if n == 0 && h.refs.Load() == 0 {
		return h.releaseConnLocked()
	}
	return nil
}

// Refs 当前的引用计数
func (h *Handle) Refs() int64 {
	return h.refs.Load()
}

// RefsFor 某个标签当前的引用计数
func (h *Handle) RefsFor(tag string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tags[tag]
}

// Executor 返回当前应该使用的执行器，有事务的时候就是事务
func (h *Handle) Executor(ctx context.Context) (engine.Executor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errs.ErrHandleClosed
	}
	if h.tx != nil {
		return h.tx, nil
	}
	if h.pinned != nil {
		return h.pinned, nil
	}
	if err := h.connLocked(ctx); err != nil {
		return nil, err
	}
	return h.conn, nil
}

// InTx 是否有进行中的事务
func (h *Handle) InTx() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tx != nil
}

// Begin 开启事务，事务期间 Handle 会持有 transaction 标签的引用
func (h *Handle) Begin(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errs.ErrHandleClosed
	}
	if h.tx != nil {
		h.mu.Unlock()
		return errs.ErrTxInProgress
	}
	var (
		tx  *sql.Tx
		err error
	)
	switch {
	case h.pinned != nil:
		beginner, ok := h.pinned.(interface {
			BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
		})
		if !ok {
			h.mu.Unlock()
			return fmt.Errorf("sqlobject: %T 不支持开启事务", h.pinned)
		}
		tx, err = beginner.BeginTx(ctx, h.txOpts)
	default:
		if err = h.connLocked(ctx); err == nil {
			tx, err = h.conn.BeginTx(ctx, h.txOpts)
		}
	}
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.tx = tx
	h.mu.Unlock()

	h.Retain(TagTransaction)
	return nil
}

// Commit 提交事务
func (h *Handle) Commit() error {
	return h.finish((*sql.Tx).Commit)
}

// Rollback 回滚事务
func (h *Handle) Rollback() error {
	return h.finish((*sql.Tx).Rollback)
}

func (h *Handle) finish(fn func(tx *sql.Tx) error) error {
	h.mu.Lock()
	tx := h.tx
	h.tx = nil
	h.mu.Unlock()
	if tx == nil {
		return errs.ErrNoTx
	}
	err := fn(tx)
	if rerr := h.Release(TagTransaction); err == nil {
		err = rerr
	}
	return err
}

// Savepoint 在当前事务里面创建保存点
func (h *Handle) Savepoint(ctx context.Context, name string) error {
	return h.execInTx(ctx, "SAVEPOINT "+name)
}

// RollbackTo 回滚到保存点
func (h *Handle) RollbackTo(ctx context.Context, name string) error {
	return h.execInTx(ctx, "ROLLBACK TO SAVEPOINT "+name)
}

// ReleaseSavepoint 释放保存点
func (h *Handle) ReleaseSavepoint(ctx context.Context, name string) error {
	return h.execInTx(ctx, "RELEASE SAVEPOINT "+name)
}

func (h *Handle) execInTx(ctx context.Context, query string) error {
	h.mu.Lock()
	tx := h.tx
	h.mu.Unlock()
	if tx == nil {
		return errs.ErrNoTx
	}
	_, err := tx.ExecContext(ctx, query)
	return err
}

// Close 回滚还没结束的事务，并且把连接还回去。之后 Executor 会返回 ErrHandleClosed
func (h *Handle) Close() error {
	var err error
	if h.InTx() {
		err = h.Rollback()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return err
	}
	h.closed = true
	if h.refs.Load() == 0 {
		if cerr := h.releaseConnLocked(); err == nil {
			err = cerr
		}
	}
	return err
}

func (h *Handle) connLocked(ctx context.Context) error {
	if h.conn != nil {
		return nil
	}
	if h.connector == nil {
		return errs.ErrHandleClosed
	}
	conn, err := h.connector.Conn(ctx)
	if err != nil {
		return err
	}
	h.conn = conn
	return nil
}

// releaseConnLocked 进行中的事务会继续占用连接
func (h *Handle) releaseConnLocked() error {
	if h.tx != nil || h.conn == nil {
		return nil
	}
	conn := h.conn
	h.conn = nil
	return conn.Close()
}
