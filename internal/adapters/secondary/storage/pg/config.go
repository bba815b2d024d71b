package pg

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const defaultStatementTimeoutMillis = 60000

type Config struct {
	Host                   string        `envconfig:"HOST" default:"localhost"`
	Port                   string        `envconfig:"PORT" default:"5432"`
	Username               string        `envconfig:"USERNAME"`
	Password               string        `envconfig:"PASSWORD"`
	Database               string        `envconfig:"DATABASE" default:"tarot"`
	SSLMode                string        `envconfig:"SSL_MODE" default:"disable"`
	StatementTimeoutMillis int           `envconfig:"STATEMENT_TIMEOUT" default:"60000"`
	MaxOpenConns           int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns           int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime        time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime        time.Duration `envconfig:"CONN_MAX_IDLE_TIME" default:"1m"`
}

func (c *Config) toPgConnection() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.Host,
		c.Port,
		c.Username,
		c.Database,
		c.Password,
		c.SSLMode,
	)
}

// NewConnection подключение через pgx stdlib с настройками пула и statement_timeout.
// statement_timeout задаётся в RuntimeParams, чтобы применяться к каждому соединению пула.
func (c *Config) NewConnection() (*sqlx.DB, error) {
	connectionConfig, err := pgx.ParseConfig(c.toPgConnection())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	timeout := c.StatementTimeoutMillis
	if timeout <= 0 {
		timeout = defaultStatementTimeoutMillis
	}
	connectionConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", timeout)
	connectionConfig.RuntimeParams["timezone"] = "UTC"

	connectionString := stdlib.RegisterConnConfig(connectionConfig)
	db, err := sqlx.Connect("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("connect db error: %w", err)
	}

	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
	db.SetConnMaxIdleTime(c.ConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db error: %w", err)
	}

	return db, nil
}
