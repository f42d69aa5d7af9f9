package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

// Queryer is the subset of sqlx shared by *sqlx.DB and an open transaction.
// Repositories resolve one per call with Conn so they run inside the caller's
// transaction when there is one.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

type DB interface {
	Queryer
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
	DriverName() string
	Ping() error
	PingContext(ctx context.Context) error
	SetConnMaxLifetime(d time.Duration)
	SetMaxIdleConns(n int)
	SetMaxOpenConns(n int)
	Stats() sql.DBStats
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error)
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
}

// TxRunner runs fn as one unit of work. Every store call made with the ctx
// passed to fn joins the same transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

func (db *DatabaseInstance) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error) {
	return GetTx(ctx, db.logger, db, opts)
}

func (db *DatabaseInstance) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	return RunInTx(ctx, db.logger, db, opts, fn)
}

// Conn returns the transaction held by ctx, or db when ctx carries none.
func Conn(ctx context.Context, db Queryer) Queryer {
	if tx, ok := ctx.Value(txKey).(*Transaction); ok && tx.IsOpen() {
		return tx
	}
	return db
}

// ReadCommitted is the isolation level used for merge and reset requests.
var ReadCommitted = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// ReadOnlySnapshot is used for reconciliation reads so every sub-entity comes
// from the same snapshot.
var ReadOnlySnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
