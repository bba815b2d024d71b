package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Querier общий набор запросов для подключения и транзакции
type Querier interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) error
	ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error)
	NamedExec(ctx context.Context, query string, arg interface{}) error
	NamedExecWithResult(ctx context.Context, query string, arg interface{}) (int64, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	NamedQuery(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error)
}

// Transaction открытая транзакция
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Persistence подключение к БД
type Persistence interface {
	Querier
	BeginTx(ctx context.Context) (Transaction, error)
	WithTransaction(ctx context.Context, fn func(context.Context, Transaction) error) error
	Ping(ctx context.Context) error
}
