package storage

import (
	"context"
	"fmt"

	"github.com/KevinKickass/ModbusCore/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClient kapselt den Connection Pool für die Sample-Historie. Die
// Historie ist optional; ohne Datenbank halten Aufrufer schlicht nil.
type PostgresClient struct {
	pool *pgxpool.Pool
}

// NewPostgresClient öffnet den Pool und pingt einmal, damit DSN-Fehler beim
// Start auffallen statt beim ersten Insert.
func NewPostgresClient(cfg config.DatabaseConfig) (*PostgresClient, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConnections)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{pool: pool}, nil
}

func (p *PostgresClient) Close() {
	p.pool.Close()
}
