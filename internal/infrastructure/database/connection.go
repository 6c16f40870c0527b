package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/config"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

const connectTimeout = 10 * time.Second

// Connection wraps a pgx connection pool scoped to the configured schema.
type Connection struct {
	pool   *pgxpool.Pool
	schema string
	logger *logging.Logger
}

// New opens the pool and verifies it with a ping before returning.
func New(cfg config.DatabaseConfig, logger *logging.Logger) (*Connection, error) {
	log := logger.WithComponent("database")

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		log.DatabaseConnectionFailed(err)
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	// the rebuild pipeline holds one connection for its CopyFrom burst while
	// the read path keeps serving; a small pool covers both
	poolConfig.MaxConns = 8
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	// simple protocol keeps the pool usable behind pgbouncer in
	// transaction mode, which recycles connections between transactions
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.DatabaseConnectionFailed(err)
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	conn := &Connection{
		pool:   pool,
		schema: cfg.Schema,
		logger: log,
	}

	if err := conn.HealthCheck(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.DatabaseConnected(cfg.Host, cfg.Name)
	return conn, nil
}

// HealthCheck pings postgres through the pool.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		c.logger.HealthCheckFailed(err)
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Pool exposes the pool for repositories and migrations.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// Schema returns the schema all tables live under.
func (c *Connection) Schema() string {
	return c.schema
}

// Close shuts down the pool.
func (c *Connection) Close() {
	c.pool.Close()
	c.logger.Info("database connection closed")
}
