package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

func ConnectPGDB(ctx context.Context, dsn string, retries int, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	// Retry up to `retries` times, waiting 3 seconds between attempts
	for i := 1; i <= retries; i++ {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			logger.Warn("failed to open database", zap.Int("attempt", i), zap.Error(err))
		} else {
			err = db.PingContext(ctx)
			if err == nil {
				logger.Info("connected to database")
				return db, nil
			}
			db.Close()
			logger.Warn("database not ready", zap.Int("attempt", i), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(3 * time.Second):
		}
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", retries, err)
}

func MigrateFS(db *sql.DB, migrationsFS fs.FS, dir string) error {
	goose.SetBaseFS(migrationsFS)
	defer func() {
		goose.SetBaseFS(nil)
	}()
	return Migrate(db, dir)
}

func Migrate(db *sql.DB, dir string) error {
	err := goose.SetDialect("postgres")
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	err = goose.Up(db, dir)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
