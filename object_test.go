package sqlobject

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/sqlobject/handle"
	"github.com/coderi421/sqlobject/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T, opts ...DBOption) (*DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	opts = append([]DBOption{DBWithRegistry(NewRegistry())}, opts...)
	return MustOpenDB(mockDB, opts...), mock
}

// refsRecorder 记录每个方法执行的时候 handle 上的引用计数
type refsRecorder struct {
	mu   sync.Mutex
	refs map[string][]int64
}

func (r *refsRecorder) build() Middleware {
	r.refs = map[string][]int64{}
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *Invocation) *Result {
			r.mu.Lock()
			r.refs[inv.Method] = append(r.refs[inv.Method], inv.Handle.Refs())
			r.mu.Unlock()
			return next(ctx, inv)
		}
	}
}

func TestFinder(t *testing.T) {
	rec := &refsRecorder{}
	db, mock := newMockDB(t, DBWithMiddlewares(rec.build()))
	h := db.Handle()
	f, err := Build(db, newFinderDef(), h)
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO `record` (`id`,`name`) VALUES (?,?)").
		WithArgs(int64(1), "Tom").
		WillReturnResult(sqlmock.NewResult(1, 1))
	n, err := f.Insert(ctx, &Record{Id: 1, Name: "Tom"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(0), h.Refs())

	mock.ExpectQuery("SELECT `id`,`name` FROM `record` ORDER BY `id`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom").AddRow(2, "Jerry"))
	all, err := f.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*Record{{Id: 1, Name: "Tom"}, {Id: 2, Name: "Jerry"}}, all)
	assert.Equal(t, int64(0), h.Refs())

	mock.ExpectQuery("SELECT `id`,`name` FROM `record` WHERE `id` = ?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Jerry"))
	r, err := f.Find(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, &Record{Id: 2, Name: "Jerry"}, r)

	// 每次调用期间只有 top-level 一个引用
	assert.Equal(t, map[string][]int64{
		"Insert":  {1},
		"FindAll": {1},
		"Find":    {1},
	}, rec.refs)
	assert.Equal(t, int64(0), h.Refs())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObject_Scalar(t *testing.T) {
	query := "SELECT `id`,`name` FROM `record` WHERE `id` = ?"
	testCases := []struct {
		name     string
		mockRows func(mock sqlmock.Sqlmock)
		want     *Record
		wantErr  error
	}{
		{
			name: "one",
			mockRows: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom"))
			},
			want: &Record{Id: 1, Name: "Tom"},
		},
		{
			name: "no rows",
			mockRows: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
			},
			wantErr: ErrNoRows,
		},
		{
			name: "too many rows",
			mockRows: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom").AddRow(1, "Tom"))
			},
			wantErr: ErrTooManyRows,
		},
		{
			name: "query error",
			mockRows: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs(int64(1)).
					WillReturnError(errors.New("mock db error"))
			},
			wantErr: errors.New("mock db error"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			h := db.Handle()
			f, err := Build(db, newFinderDef(), h)
			require.NoError(t, err)
			tc.mockRows(mock)

			r, err := f.Find(context.Background(), 1)
			assert.Equal(t, tc.wantErr, err)
			assert.Equal(t, tc.want, r)
			// 出错的时候引用也已经释放
			assert.Equal(t, int64(0), h.Refs())
		})
	}
}

func TestObject_Update(t *testing.T) {
	db, mock := newMockDB(t)
	h := db.Handle()
	dao, err := Build(db, newRecordDaoDef(), h)
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectExec("UPDATE `record` SET `name` = ? WHERE `id` = ?").
		WithArgs("Jerry", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	res, err := dao.Rename(ctx, 1, "Jerry")
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	mock.ExpectExec("DELETE FROM `record` WHERE `id` = ?").
		WithArgs(int64(1)).
		WillReturnError(sql.ErrConnDone)
	err = dao.Delete(ctx, 1)
	assert.Equal(t, sql.ErrConnDone, err)
	assert.Equal(t, int64(0), h.Refs())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObject_CountAndNames(t *testing.T) {
	db, mock := newMockDB(t)
	dao, err := Build(db, newRecordDaoDef(), db.Handle())
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT(*) FROM `record`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))
	cnt, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cnt)

	mock.ExpectQuery("SELECT `name` FROM `record`").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	names, err := dao.Names(ctx)
	require.NoError(t, err)
	// 没有数据也是一个空的切片
	assert.NotNil(t, names)
	assert.Empty(t, names)

	mock.ExpectQuery("SELECT `name` FROM `record`").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Tom").AddRow("Jerry"))
	names, err = dao.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom", "Jerry"}, names)
}

func TestObject_Cursor(t *testing.T) {
	db, mock := newMockDB(t)
	h := db.Handle()
	dao, err := Build(db, newRecordDaoDef(), h)
	require.NoError(t, err)
	ctx := context.Background()

	// 拿到 Query 的时候还没有访问数据库
	q, err := dao.ByName(ctx, "Tom")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, int64(0), h.Refs())

	st, err := q.Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `id`,`name` FROM `record` WHERE `name` = ?", st.SQL)
	assert.Equal(t, []any{"Tom"}, st.Args)

	mock.ExpectQuery(st.SQL).WithArgs("Tom").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom").AddRow(3, "Tom"))
	list, err := q.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*Record{{Id: 1, Name: "Tom"}, {Id: 3, Name: "Tom"}}, list)

	mock.ExpectQuery(st.SQL).WithArgs("Tom").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom"))
	one, err := q.One(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Record{Id: 1, Name: "Tom"}, one)

	mock.ExpectQuery(st.SQL).WithArgs("Tom").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom"))
	it, err := q.Iter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.RefsFor(handle.TagIterator))
	var got []*Record
	for r, err := range it.All() {
		require.NoError(t, err)
		got = append(got, r)
	}
	assert.Equal(t, []*Record{{Id: 1, Name: "Tom"}}, got)
	assert.Equal(t, int64(0), h.Refs())

	var zero Query[*Record]
	_, err = zero.List(ctx)
	assert.Equal(t, ErrInvalidArgument, err)
}

func TestObject_Iterator(t *testing.T) {
	db, mock := newMockDB(t)
	h := db.Handle()
	dao, err := Build(db, newRecordDaoDef(), h)
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectQuery("SELECT `id`,`name` FROM `record`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom").AddRow(2, "Jerry"))
	it, err := dao.Stream(ctx)
	require.NoError(t, err)
	// 调用已经返回，迭代器还占着 handle
	assert.Equal(t, int64(1), h.Refs())
	assert.Equal(t, 1, h.RefsFor(handle.TagIterator))

	var names []string
	for r, err := range it.All() {
		require.NoError(t, err)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Tom", "Jerry"}, names)
	assert.Equal(t, int64(0), h.Refs())

	// 只能遍历一次
	for _, err := range it.All() {
		assert.Equal(t, ErrIteratorDone, err)
	}
	assert.False(t, it.Next())
	require.NoError(t, it.Close())
	assert.Equal(t, int64(0), h.Refs())

	// 提前结束
	mock.ExpectQuery("SELECT `id`,`name` FROM `record`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom").AddRow(2, "Jerry"))
	it, err = dao.Stream(ctx)
	require.NoError(t, err)
	for range it.All() {
		break
	}
	assert.Equal(t, int64(0), h.Refs())
	require.NoError(t, it.Close())

	// 出错的时候不会留下引用
	mock.ExpectQuery("SELECT `id`,`name` FROM `record`").
		WillReturnError(errors.New("mock db error"))
	_, err = dao.Stream(ctx)
	assert.Equal(t, errors.New("mock db error"), err)
	assert.Equal(t, int64(0), h.Refs())
	assert.Equal(t, 0, h.RefsFor(handle.TagIterator))
}

func TestObject_InTransaction(t *testing.T) {
	testCases := []struct {
		name    string
		before  func(mock sqlmock.Sqlmock)
		fn      func(dao RecordDao) func(ctx context.Context) error
		wantErr error
		// 事务里面 Delete 执行时候的引用计数
		wantRefs []int64
	}{
		{
			name: "commit",
			before: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM `record` WHERE `id` = ?").
					WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(dao RecordDao) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return dao.Delete(ctx, 1)
				}
			},
			// 外层调用，事务，Delete 自己
			wantRefs: []int64{3},
		},
		{
			name: "nested",
			before: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM `record` WHERE `id` = ?").
					WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(dao RecordDao) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					// 已经在事务里面，直接执行
					return dao.InTransaction(ctx, func(ctx context.Context) error {
						return dao.Delete(ctx, 1)
					})
				}
			},
			wantRefs: []int64{4},
		},
		{
			name: "rollback on error",
			before: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM `record` WHERE `id` = ?").
					WithArgs(int64(1)).WillReturnError(errors.New("mock db error"))
				mock.ExpectRollback()
			},
			fn: func(dao RecordDao) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return dao.Delete(ctx, 1)
				}
			},
			wantErr:  errors.New("mock db error"),
			wantRefs: []int64{3},
		},
		{
			name: "begin error",
			before: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("mock begin error"))
			},
			fn: func(dao RecordDao) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return dao.Delete(ctx, 1)
				}
			},
			wantErr: errors.New("mock begin error"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &refsRecorder{}
			db, mock := newMockDB(t, DBWithMiddlewares(rec.build()))
			h := db.Handle()
			dao, err := Build(db, newRecordDaoDef(), h)
			require.NoError(t, err)
			tc.before(mock)

			err = dao.InTransaction(context.Background(), tc.fn(dao))
			assert.Equal(t, tc.wantErr, err)
			assert.Equal(t, tc.wantRefs, rec.refs["Delete"])
			assert.False(t, h.InTx())
			assert.Equal(t, int64(0), h.Refs())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestObject_InTransactionPanic(t *testing.T) {
	db, mock := newMockDB(t)
	h := db.Handle()
	dao, err := Build(db, newRecordDaoDef(), h)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.PanicsWithValue(t, "boom", func() {
		_ = dao.InTransaction(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	})
	assert.False(t, h.InTx())
	assert.Equal(t, int64(0), h.Refs())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObject_Transactional(t *testing.T) {
	db, mock := newMockDB(t)
	h := db.Handle()
	dao, err := Build(db, newRecordDaoDef(), h)
	require.NoError(t, err)
	ctx := context.Background()
	assert.Same(t, h, dao.Handle())

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT sp1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `record` WHERE `id` = ?").
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT sp1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE SAVEPOINT sp1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, dao.Begin(ctx))
	assert.True(t, h.InTx())
	assert.Equal(t, 1, h.RefsFor(handle.TagTransaction))
	assert.Equal(t, ErrTxInProgress, dao.Begin(ctx))
	require.NoError(t, dao.Savepoint(ctx, "sp1"))
	require.NoError(t, dao.Delete(ctx, 1))
	require.NoError(t, dao.RollbackTo(ctx, "sp1"))
	require.NoError(t, dao.ReleaseSavepoint(ctx, "sp1"))
	require.NoError(t, dao.Commit())
	assert.Equal(t, ErrNoTx, dao.Rollback())
	assert.Equal(t, int64(0), h.Refs())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObject_MixinWithoutDeclaration(t *testing.T) {
	db, mock := newMockDB(t)
	h := db.Handle()
	f, err := Build(db, newFinderDef(), h)
	require.NoError(t, err)
	ctx := context.Background()

	// Finder 没有声明 Transactional，但是适配器嵌入了 *Object
	tx, ok := f.(Transactional)
	require.True(t, ok)
	mock.ExpectBegin()
	mock.ExpectRollback()
	require.NoError(t, tx.Begin(ctx))
	assert.True(t, h.InTx())
	require.NoError(t, tx.Rollback())
	assert.Same(t, h, f.(GetHandle).Handle())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObject_Close(t *testing.T) {
	db, _ := newMockDB(t)
	h := db.Handle()
	f, err := Build(db, newFinderDef(), h)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.True(t, f.(finder).Closed())
	// 第二次关闭什么也不做
	require.NoError(t, f.Close())
	require.NoError(t, Close(f))

	_, err = f.Find(context.Background(), 1)
	assert.Equal(t, ErrObjectClosed, err)
	_, err = f.FindAll(context.Background())
	assert.Equal(t, ErrObjectClosed, err)
	assert.Nil(t, f.(GetHandle).Handle())
	assert.Equal(t, ErrObjectClosed, f.(Transactional).Begin(context.Background()))
	assert.Equal(t, int64(0), h.Refs())

	// handle 不归对象所有，关闭对象之后还能用
	_, err = h.Executor(context.Background())
	assert.NoError(t, err)
}

func TestObject_CloseOwned(t *testing.T) {
	db, _ := newMockDB(t)
	f, err := Attach(db, newFinderDef())
	require.NoError(t, err)
	h := f.(GetHandle).Handle()
	require.NotNil(t, h)

	require.NoError(t, Close(f))
	assert.True(t, f.(finder).Closed())
	_, err = h.Executor(context.Background())
	assert.Equal(t, ErrHandleClosed, err)
	require.NoError(t, f.Close())
}

func TestClose_NotSQLObject(t *testing.T) {
	testCases := []struct {
		name string
		obj  any
	}{
		{name: "nil", obj: nil},
		{name: "struct", obj: Record{}},
		{name: "closer", obj: &fakeFinder{}},
		{name: "empty object", obj: &Object{}},
		{name: "nil object", obj: (*Object)(nil)},
		{name: "adapter without object", obj: finder{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Close(tc.obj)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			// 没有 Build 过的 *Object 直接调用 Close 也是一样
			if c, ok := tc.obj.(internalCloser); ok {
				assert.ErrorIs(t, c.(interface{ Close() error }).Close(), ErrInvalidArgument)
			}
		})
	}
}

// fakeFinder 实现了 Finder，但不是 Build 出来的
type fakeFinder struct{}

func (*fakeFinder) Find(ctx context.Context, id int64) (*Record, error) { return nil, nil }
func (*fakeFinder) FindAll(ctx context.Context) ([]*Record, error)     { return nil, nil }
func (*fakeFinder) Insert(ctx context.Context, r *Record) (int64, error) {
	return 0, nil
}
func (*fakeFinder) Close() error { return nil }

func TestBuild(t *testing.T) {
	db, _ := newMockDB(t)
	testCases := []struct {
		name    string
		build   func() (any, error)
		wantErr error
	}{
		{
			name: "nil handle",
			build: func() (any, error) {
				return Build(db, newFinderDef(), nil)
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "nil definition",
			build: func() (any, error) {
				return Build[Finder](db, nil, db.Handle())
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "adapter without object",
			build: func() (any, error) {
				def := Define[Finder](func(o *Object) Finder { return &fakeFinder{} }, finderSQL)
				return Build(db, def, db.Handle())
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "unsupported method",
			build: func() (any, error) {
				def := Define[Broken](func(o *Object) Broken { return nil }, SQL{})
				return Build(db, def, db.Handle())
			},
			wantErr: ErrUnsupportedMethod,
		},
		{
			name: "not interface",
			build: func() (any, error) {
				def := Define[*Record](func(o *Object) *Record { return nil }, SQL{})
				return Build(db, def, db.Handle())
			},
			wantErr: ErrNotInterface,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build()
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestObject_MiddlewareOrder(t *testing.T) {
	var logs []string
	mdl := func(name string) Middleware {
		return func(next Invoker) Invoker {
			return func(ctx context.Context, inv *Invocation) *Result {
				logs = append(logs, name+" before "+inv.Method)
				res := next(ctx, inv)
				logs = append(logs, name+" after "+inv.Method)
				return res
			}
		}
	}
	// 中间件可以改写参数
	rewrite := func(next Invoker) Invoker {
		return func(ctx context.Context, inv *Invocation) *Result {
			if inv.Method == "Find" {
				inv.Args = []any{int64(9)}
			}
			return next(ctx, inv)
		}
	}
	db, mock := newMockDB(t, DBWithMiddlewares(mdl("first"), mdl("second"), rewrite))
	f, err := Build(db, newFinderDef(), db.Handle())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT `id`,`name` FROM `record` WHERE `id` = ?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(9, "Tom"))
	r, err := f.Find(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(9), r.Id)
	assert.Equal(t, []string{
		"first before Find",
		"second before Find",
		"second after Find",
		"first after Find",
	}, logs)
}

func TestBindArgs(t *testing.T) {
	testCases := []struct {
		name    string
		args    []any
		fields  []string
		want    []any
		wantErr error
	}{
		{
			name: "no fields",
			args: []any{int64(1), "Tom"},
			want: []any{int64(1), "Tom"},
		},
		{
			name:   "pointer",
			args:   []any{&Record{Id: 1, Name: "Tom"}},
			fields: []string{"Name", "Id"},
			want:   []any{"Tom", int64(1)},
		},
		{
			name:   "struct and scalar",
			args:   []any{Record{Id: 1, Name: "Tom"}, 12},
			fields: []string{"Id"},
			want:   []any{int64(1), 12},
		},
		{
			name:    "unknown field",
			args:    []any{Record{}},
			fields:  []string{"Age"},
			wantErr: errs.NewErrUnknownField("Age"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := bindArgs(tc.args, tc.fields)
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, res)
		})
	}
}

type connectorFunc func(ctx context.Context) (*sql.Conn, error)

func (f connectorFunc) Conn(ctx context.Context) (*sql.Conn, error) {
	return f(ctx)
}

func TestObject_ReleaseErrorIgnored(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mockDB.Close()

	var conn *sql.Conn
	connector := connectorFunc(func(ctx context.Context) (*sql.Conn, error) {
		c, err := mockDB.Conn(ctx)
		conn = c
		return c, err
	})
	// 结果返回之前把连接关掉，handle 归还连接的时候会拿到 sql.ErrConnDone
	closeConn := func(next Invoker) Invoker {
		return func(ctx context.Context, inv *Invocation) *Result {
			res := next(ctx, inv)
			_ = conn.Close()
			return res
		}
	}
	db := MustOpenDB(mockDB, DBWithRegistry(NewRegistry()), DBWithMiddlewares(closeConn))
	h := handle.New(connector)
	f, err := Build(db, newFinderDef(), h)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO `record` (`id`,`name`) VALUES (?,?)").
		WithArgs(int64(1), "Tom").
		WillReturnResult(sqlmock.NewResult(1, 1))
	n, err := f.Insert(context.Background(), &Record{Id: 1, Name: "Tom"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(0), h.Refs())
	require.NoError(t, mock.ExpectationsWereMet())
}
