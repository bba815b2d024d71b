package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/jmoiron/sqlx"
)

// querier выполняет запросы поверх sqlx.DB или sqlx.Tx
type querier struct {
	ext sqlx.ExtContext
}

// Get выполняет запрос и сканирует одну запись в структуру
func (q querier) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q.ext, dest, query, args...)
}

// Select выполняет запрос и сканирует результаты в слайс структур
func (q querier) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q.ext, dest, query, args...)
}

// Exec выполняет запрос без возврата данных
func (q querier) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := q.ext.ExecContext(ctx, query, args...)
	return err
}

// ExecWithResult возвращает количество затронутых строк
func (q querier) ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// NamedExec выполняет именованный запрос по db-тегам
func (q querier) NamedExec(ctx context.Context, query string, arg interface{}) error {
	_, err := sqlx.NamedExecContext(ctx, q.ext, query, arg)
	return err
}

func (q querier) NamedExecWithResult(ctx context.Context, query string, arg interface{}) (int64, error) {
	result, err := sqlx.NamedExecContext(ctx, q.ext, query, arg)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// QueryRow используется для запросов с RETURNING
func (q querier) QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return q.ext.QueryRowxContext(ctx, query, args...)
}

func (q querier) NamedQuery(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return sqlx.NamedQueryContext(ctx, q.ext, query, arg)
}

// DB обёртка над sqlx.DB, реализует persistence.Persistence
type DB struct {
	querier
	Db *sqlx.DB
}

func NewDB(db *sqlx.DB) *DB {
	return &DB{querier: querier{ext: db}, Db: db}
}

// BeginTx начинает новую транзакцию
func (d *DB) BeginTx(ctx context.Context) (persistence.Transaction, error) {
	tx, err := d.Db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{querier: querier{ext: tx}, tx: tx}, nil
}

// WithTransaction выполняет fn в транзакции: commit при успехе, rollback при ошибке или панике
func (d *DB) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) (err error) {
	tx, err := d.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rollbackErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping проверка соединения для /ready
func (d *DB) Ping(ctx context.Context) error {
	return d.Db.PingContext(ctx)
}

// Close закрывает подключение к базе данных
func (d *DB) Close() error {
	return d.Db.Close()
}
