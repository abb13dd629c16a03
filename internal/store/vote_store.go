package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/youtube"
)

type PostgresVoteStore struct {
	db *sql.DB
}

func NewPostgresVoteStore(db *sql.DB) *PostgresVoteStore {
	return &PostgresVoteStore{db: db}
}

type VoteStore interface {
	Upvote(ctx context.Context, tag string) (*models.HashtagVote, error)
	Downvote(ctx context.Context, tag string) (*models.HashtagVote, error)
	GetVotes(ctx context.Context, tags []string) ([]models.HashtagVote, error)
}

func (pg *PostgresVoteStore) Upvote(ctx context.Context, tag string) (*models.HashtagVote, error) {
	tag = youtube.CleanTag(tag)
	if tag == "" {
		return nil, apperror.EmptyTag()
	}

	query := `
	INSERT INTO hashtag_votes (hashtag, vote_count)
	VALUES ($1, 1)
	ON CONFLICT (hashtag) DO UPDATE SET vote_count = hashtag_votes.vote_count + 1
	RETURNING hashtag, vote_count;
	`

	vote := &models.HashtagVote{}
	err := pg.db.QueryRowContext(ctx, query, tag).Scan(&vote.Hashtag, &vote.VoteCount)
	if err != nil {
		return nil, fmt.Errorf("error running upvote query: %w", err)
	}
	return vote, nil
}

// Downvote lowers the count by one but never below zero.
func (pg *PostgresVoteStore) Downvote(ctx context.Context, tag string) (*models.HashtagVote, error) {
	tag = youtube.CleanTag(tag)
	if tag == "" {
		return nil, apperror.EmptyTag()
	}

	query := `
	UPDATE hashtag_votes
	SET vote_count = GREATEST(vote_count - 1, 0)
	WHERE hashtag = $1
	RETURNING hashtag, vote_count;
	`

	vote := &models.HashtagVote{}
	err := pg.db.QueryRowContext(ctx, query, tag).Scan(&vote.Hashtag, &vote.VoteCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.TagNotFound(tag)
	}
	if err != nil {
		return nil, fmt.Errorf("error running downvote query: %w", err)
	}
	return vote, nil
}

// GetVotes returns one entry per input tag, in input order, with a zero
// count for tags nobody voted on.
func (pg *PostgresVoteStore) GetVotes(ctx context.Context, tags []string) ([]models.HashtagVote, error) {
	result := make([]models.HashtagVote, 0, len(tags))
	if len(tags) == 0 {
		return result, nil
	}

	cleaned := make([]string, len(tags))
	args := make([]any, 0, len(tags))
	placeholders := make([]string, 0, len(tags))
	for i, tag := range tags {
		cleaned[i] = youtube.CleanTag(tag)
		args = append(args, cleaned[i])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := fmt.Sprintf(
		`SELECT hashtag, vote_count FROM hashtag_votes WHERE hashtag IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	rows, err := pg.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(tags))
	for rows.Next() {
		var tag string
		var count int
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		counts[tag] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}

	for _, tag := range cleaned {
		result = append(result, models.HashtagVote{Hashtag: tag, VoteCount: counts[tag]})
	}
	return result, nil
}
