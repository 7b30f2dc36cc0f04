package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/coderi421/sqlobject"
	"github.com/rs/zerolog"
)

type Record struct {
	Id   int64  `orm:"column=id"`
	Name string `orm:"column=name"`
}

type Finder interface {
	sqlobject.Transactional
	Find(ctx context.Context, id int64) (*Record, error)
	FindAll(ctx context.Context) ([]*Record, error)
	Insert(ctx context.Context, r *Record) (int64, error)
	CreateTable(ctx context.Context) error
	Close() error
}

type finder struct {
	*sqlobject.Object
}

func (f finder) Find(ctx context.Context, id int64) (*Record, error) {
	return sqlobject.Call[*Record](f.Object, "Find", ctx, id)
}

func (f finder) FindAll(ctx context.Context) ([]*Record, error) {
	return sqlobject.Call[[]*Record](f.Object, "FindAll", ctx)
}

func (f finder) Insert(ctx context.Context, r *Record) (int64, error) {
	return sqlobject.Call[int64](f.Object, "Insert", ctx, r)
}

func (f finder) CreateTable(ctx context.Context) error {
	return sqlobject.Exec(f.Object, "CreateTable", ctx)
}

var finders = sqlobject.Define[Finder](func(o *sqlobject.Object) Finder { return finder{o} }, sqlobject.SQL{
	"Find":        sqlobject.SQLQuery("SELECT `id`,`name` FROM `record` WHERE `id` = ?"),
	"FindAll":     sqlobject.SQLQuery("SELECT `id`,`name` FROM `record` ORDER BY `id`"),
	"Insert":      sqlobject.SQLUpdate("INSERT INTO `record` (`id`,`name`) VALUES (?,?)").Bind("Id", "Name"),
	"CreateTable": sqlobject.SQLUpdate("CREATE TABLE IF NOT EXISTS `record` (`id` BIGINT PRIMARY KEY, `name` VARCHAR(128) NOT NULL)"),
})

var errAbort = errors.New("abort")

// run 建表，插入，查询，然后演示事务的提交和回滚
func run(ctx context.Context, db *sqlobject.DB, logger zerolog.Logger) error {
	f, err := sqlobject.Attach(db, finders)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err = f.CreateTable(ctx); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if _, err = f.Insert(ctx, &Record{Id: 1, Name: "Tom"}); err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	err = f.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := f.Insert(ctx, &Record{Id: 2, Name: "Jerry"}); err != nil {
			return err
		}
		_, err := f.Insert(ctx, &Record{Id: 3, Name: "Spike"})
		return err
	})
	if err != nil {
		return fmt.Errorf("insert in transaction: %w", err)
	}

	// 这个事务会被回滚
	err = f.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := f.Insert(ctx, &Record{Id: 4, Name: "Tyke"}); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		return fmt.Errorf("rollback: %w", err)
	}

	all, err := f.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("find all: %w", err)
	}
	for _, r := range all {
		logger.Info().Int64("id", r.Id).Str("name", r.Name).Msg("record")
	}

	if _, err = f.Find(ctx, 4); !errors.Is(err, sqlobject.ErrNoRows) {
		return fmt.Errorf("find rolled back record: %v", err)
	}
	logger.Info().Int("records", len(all)).Msg("done")
	return nil
}
