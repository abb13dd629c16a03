package analytics

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/filmchain/track-shorts/internal/models"
)

type SnapshotStore interface {
	RecordSnapshots(ctx context.Context, snapshots []models.ViewSnapshot) error
	GetSnapshots(ctx context.Context, videoID string) ([]models.ViewSnapshot, error)
}

type ClickhouseSnapshotStore struct {
	conn driver.Conn
}

func NewClickhouseSnapshotStore(conn driver.Conn) *ClickhouseSnapshotStore {
	return &ClickhouseSnapshotStore{conn: conn}
}

func (c *ClickhouseSnapshotStore) RecordSnapshots(ctx context.Context, snapshots []models.ViewSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO short_view_snapshots`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot batch: %w", err)
	}

	for i := range snapshots {
		if err := batch.AppendStruct(&snapshots[i]); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append snapshot: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send snapshot batch: %w", err)
	}
	return nil
}

func (c *ClickhouseSnapshotStore) GetSnapshots(ctx context.Context, videoID string) ([]models.ViewSnapshot, error) {
	query := `
		SELECT video_id, snapshot_time, view_count, like_count, title
		FROM short_view_snapshots
		WHERE video_id = ?
		ORDER BY snapshot_time DESC
	`

	snapshots := []models.ViewSnapshot{}
	if err := c.conn.Select(ctx, &snapshots, query, videoID); err != nil {
		return nil, fmt.Errorf("failed to get view snapshots: %w", err)
	}

	return snapshots, nil
}

// NoopSnapshotStore is used when no analytics database is configured.
type NoopSnapshotStore struct{}

func (NoopSnapshotStore) RecordSnapshots(context.Context, []models.ViewSnapshot) error {
	return nil
}

func (NoopSnapshotStore) GetSnapshots(context.Context, string) ([]models.ViewSnapshot, error) {
	return []models.ViewSnapshot{}, nil
}
