package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/gensosanso/financecorner/pkg/config"
	"github.com/gensosanso/financecorner/pkg/db"
)

// Tx is the scoped atomic unit every multi-step ledger workflow runs in.
// *sql.Tx satisfies it; in-memory test stores provide their own.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxBeginner opens a Tx. The Ledger Service depends on this rather than on
// *sql.DB so store implementations stay swappable.
type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// DBTX is the query surface shared by *sql.DB and *sql.Tx. Repositories
// run every statement through it so the same code serves both paths.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type DBManager struct {
	Db *sql.DB
}

func New(cfg *config.DatabaseConfig) (*DBManager, error) {
	DBDSN := db.GetDBDSN(cfg)
	Db, err := sql.Open("postgres", DBDSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		Db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		Db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			Db.SetConnMaxLifetime(lifetime)
		}
	}
	if err := Db.Ping(); err != nil {
		return nil, err
	}

	return &DBManager{
		Db: Db,
	}, nil
}

func (dm *DBManager) Begin(ctx context.Context) (Tx, error) {
	return dm.Db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (dm *DBManager) ShutDown() {
	if dm.Db != nil {
		dm.Db.Close()
	}
}
