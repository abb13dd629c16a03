package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
)

// StatsUpdate is one record's worth of freshly fetched stats. Nil Title or
// Hashtags leave the stored value as it is.
type StatsUpdate struct {
	VideoID   string
	ViewCount int64
	LikeCount int64
	Title     *string
	Hashtags  *string
}

type PostgresShortStore struct {
	db *sql.DB
}

func NewPostgresShortStore(db *sql.DB) *PostgresShortStore {
	if db == nil {
		panic("db cannot be nil for PostgresShortStore")
	}
	return &PostgresShortStore{db: db}
}

type ShortStore interface {
	Exists(ctx context.Context, videoID string) (bool, error)
	CreateShort(ctx context.Context, short *models.Short) error
	GetShortByVideoID(ctx context.Context, videoID string) (*models.Short, error)
	UpdateShortStats(ctx context.Context, short *models.Short) error
	DeleteShort(ctx context.Context, videoID string) error
	ListVideoIDs(ctx context.Context) ([]string, error)
	ApplyStatsBatch(ctx context.Context, updates []StatsUpdate) (int, error)
	SumViewsByHashtag(ctx context.Context, tag, required string) (int64, error)
	ListShortsByHashtag(ctx context.Context, tag, required string, limit int) ([]models.Short, error)
}

const shortColumns = `id, video_id, url, title, hashtags, view_count, like_count, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShort(row rowScanner) (*models.Short, error) {
	short := &models.Short{}
	var userID uuid.NullUUID

	err := row.Scan(
		&short.ID,
		&short.VideoID,
		&short.URL,
		&short.Title,
		&short.Hashtags,
		&short.ViewCount,
		&short.LikeCount,
		&userID,
		&short.CreatedAt,
		&short.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		id := userID.UUID
		short.UserID = &id
	}
	return short, nil
}

func (pg *PostgresShortStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	err := pg.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM shorts WHERE video_id = $1)`, videoID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short existence: %w", err)
	}
	return exists, nil
}

// CreateShort inserts the record and fills in its generated columns. A
// second insert of the same video id fails with apperror.ErrDuplicate.
func (pg *PostgresShortStore) CreateShort(ctx context.Context, short *models.Short) error {
	query := `
	INSERT INTO shorts (video_id, url, title, hashtags, view_count, like_count, user_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at;
	`

	var userID uuid.NullUUID
	if short.UserID != nil {
		userID = uuid.NullUUID{UUID: *short.UserID, Valid: true}
	}

	err := pg.db.QueryRowContext(ctx, query,
		short.VideoID,
		short.URL,
		short.Title,
		short.Hashtags,
		short.ViewCount,
		short.LikeCount,
		userID,
	).Scan(&short.ID, &short.CreatedAt, &short.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate(short.VideoID)
		}
		return fmt.Errorf("error running create short query: %w", err)
	}

	return nil
}

func (pg *PostgresShortStore) GetShortByVideoID(ctx context.Context, videoID string) (*models.Short, error) {
	query := `SELECT ` + shortColumns + ` FROM shorts WHERE video_id = $1`

	short, err := scanShort(pg.db.QueryRowContext(ctx, query, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.VideoNotFound(videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("error running get short query: %w", err)
	}
	return short, nil
}

// UpdateShortStats writes counts, title and hashtags exactly as they are on
// short, then refreshes its updated_at.
func (pg *PostgresShortStore) UpdateShortStats(ctx context.Context, short *models.Short) error {
	query := `
	UPDATE shorts
	SET view_count = $2, like_count = $3, title = $4, hashtags = $5, updated_at = now()
	WHERE video_id = $1
	RETURNING updated_at;
	`

	err := pg.db.QueryRowContext(ctx, query,
		short.VideoID,
		short.ViewCount,
		short.LikeCount,
		short.Title,
		short.Hashtags,
	).Scan(&short.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return apperror.VideoNotFound(short.VideoID)
	}
	if err != nil {
		return fmt.Errorf("error running update short query: %w", err)
	}
	return nil
}

func (pg *PostgresShortStore) DeleteShort(ctx context.Context, videoID string) error {
	_, err := pg.db.ExecContext(ctx, `DELETE FROM shorts WHERE video_id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete short: %w", err)
	}
	return nil
}

func (pg *PostgresShortStore) ListVideoIDs(ctx context.Context) ([]string, error) {
	rows, err := pg.db.QueryContext(ctx, `SELECT video_id FROM shorts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list video ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate video ids: %w", err)
	}
	return ids, nil
}

// ApplyStatsBatch writes all updates in one transaction and reports how many
// rows were touched. Any failure rolls the whole batch back.
func (pg *PostgresShortStore) ApplyStatsBatch(ctx context.Context, updates []StatsUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := pg.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin stats batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	UPDATE shorts
	SET view_count = $2,
		like_count = $3,
		title = COALESCE($4, title),
		hashtags = COALESCE($5, hashtags),
		updated_at = now()
	WHERE video_id = $1
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare stats update: %w", err)
	}
	defer stmt.Close()

	updated := 0
	for _, u := range updates {
		res, err := stmt.ExecContext(ctx, u.VideoID, u.ViewCount, u.LikeCount, u.Title, u.Hashtags)
		if err != nil {
			return 0, fmt.Errorf("failed to update stats for %s: %w", u.VideoID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		updated += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit stats batch: %w", err)
	}
	return updated, nil
}

// hashtagPattern builds an ILIKE pattern matching "#tag" anywhere in the
// hashtags column, with LIKE wildcards in tag taken literally.
func hashtagPattern(tag string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%#" + r.Replace(tag) + "%"
}

func (pg *PostgresShortStore) SumViewsByHashtag(ctx context.Context, tag, required string) (int64, error) {
	query := `
	SELECT COALESCE(SUM(view_count), 0)
	FROM shorts
	WHERE hashtags ILIKE $1 ESCAPE '\'
	AND hashtags ILIKE $2 ESCAPE '\'
	`

	var total int64
	err := pg.db.QueryRowContext(ctx, query, hashtagPattern(tag), hashtagPattern(required)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum views for hashtag %s: %w", tag, err)
	}
	return total, nil
}

func (pg *PostgresShortStore) ListShortsByHashtag(ctx context.Context, tag, required string, limit int) ([]models.Short, error) {
	query := `SELECT ` + shortColumns + `
	FROM shorts
	WHERE hashtags ILIKE $1 ESCAPE '\'
	AND hashtags ILIKE $2 ESCAPE '\'
	ORDER BY view_count DESC, id
	LIMIT $3
	`

	rows, err := pg.db.QueryContext(ctx, query, hashtagPattern(tag), hashtagPattern(required), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list shorts by hashtag: %w", err)
	}
	defer rows.Close()

	shorts := []models.Short{}
	for rows.Next() {
		short, err := scanShort(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan short: %w", err)
		}
		shorts = append(shorts, *short)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shorts: %w", err)
	}
	return shorts, nil
}
