package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool wraps [pgxpool.Pool] with logged close.
type Pool struct {
	*pgxpool.Pool
}

func NewPool(ctx context.Context, dsn string) (Pool, error) {
	const op = "storage.NewPool"
	log := slog.With("op", op)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return Pool{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return Pool{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return Pool{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	log.Info("database is available")
	return Pool{p}, nil
}

func (p Pool) Close() {
	const op = "Pool.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")
	p.Pool.Close()
	log.Info("sql database is closed")
}
