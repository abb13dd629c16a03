package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

type ClickhouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

func ConnectClickhouse(ctx context.Context, cfg ClickhouseConfig, retries int, logger *zap.Logger) (driver.Conn, error) {
	var conn driver.Conn
	var err error

	for i := 1; i <= retries; i++ {
		conn, err = clickhouse.Open(&clickhouse.Options{
			Addr: []string{cfg.Addr},
			Auth: clickhouse.Auth{
				Database: cfg.Database,
				Username: cfg.Username,
				Password: cfg.Password,
			},
			ClientInfo: clickhouse.ClientInfo{
				Products: []struct {
					Name    string
					Version string
				}{
					{Name: "filmchain-track-shorts", Version: "1.0"},
				},
			},
		})

		if err == nil {
			err = conn.Ping(ctx)
			if err == nil {
				logger.Info("connected to clickhouse")
				return conn, nil
			}
			conn.Close()
		}

		logger.Warn("clickhouse not ready", zap.Int("attempt", i), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to clickhouse: %w", ctx.Err())
		case <-time.After(3 * time.Second):
		}
	}

	return nil, fmt.Errorf("could not connect to ClickHouse after %d attempts: %w", retries, err)
}

// MigrateClickhouse applies the migrations found under dir in migrationsFS.
func MigrateClickhouse(cfg ClickhouseConfig, migrationsFS fs.FS, dir string) error {
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migration source error: %w", err)
	}

	dbURL := fmt.Sprintf("clickhouse://%s:%s@%s/%s?x-multi-statement=true",
		url.QueryEscape(cfg.Username), url.QueryEscape(cfg.Password), cfg.Addr, cfg.Database)

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return fmt.Errorf("migration init error: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}
