package db

import (
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/PauloHFS/gothpress/internal/config"
)

// DualPool separa leituras de escritas sobre o mesmo arquivo SQLite. Em WAL
// os leitores não bloqueiam uns aos outros; a escrita fica presa em uma
// conexão para serializar as transações já no lado do Go.
type DualPool struct {
	Read  *sql.DB
	Write *sql.DB
}

// NewDualPool abre os dois pools com os mesmos pragmas. O pool de leitura
// escala com o número de CPUs; o de escrita é sempre uma conexão.
func NewDualPool(driver, dsn string, sqliteCfg config.SQLiteConfig) (*DualPool, error) {
	read, err := openPool(driver, dsn, sqliteCfg, runtime.NumCPU()*2, runtime.NumCPU())
	if err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}

	write, err := openPool(driver, dsn, sqliteCfg, 1, 1)
	if err != nil {
		read.Close()
		return nil, fmt.Errorf("write pool: %w", err)
	}

	return &DualPool{Read: read, Write: write}, nil
}

func openPool(driver, dsn string, sqliteCfg config.SQLiteConfig, maxOpen, maxIdle int) (*sql.DB, error) {
	pool, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)
	pool.SetConnMaxIdleTime(5 * time.Minute)
	pool.SetConnMaxLifetime(time.Hour)

	if err := sqliteCfg.ApplyPragmas(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (p *DualPool) Close() error {
	closeSide := func(name string, db *sql.DB) error {
		if db == nil {
			return nil
		}
		if err := db.Close(); err != nil {
			return fmt.Errorf("%s pool close: %w", name, err)
		}
		return nil
	}
	return errors.Join(closeSide("read", p.Read), closeSide("write", p.Write))
}

// Queries devolve o query layer sobre o pool de leitura.
func (p *DualPool) Queries() *Queries { return New(p.Read) }

// QueriesWrite devolve o query layer sobre o pool de escrita.
func (p *DualPool) QueriesWrite() *Queries { return New(p.Write) }
