package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/migrations"
)

// newTestDB connects to TEST_DATABASE_URL, migrates it and empties the
// tables. Tests that need Postgres are skipped when the variable is unset.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := ConnectPGDB(context.Background(), dsn, 1, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, MigrateFS(db, migrations.FS, "."))

	_, err = db.Exec(`TRUNCATE shorts, hashtag_votes, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

func strPtr(s string) *string {
	return &s
}
