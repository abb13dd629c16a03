package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
)

// ErrUserNotFound is returned by the lookups below when no row matches.
var ErrUserNotFound = errors.New("user not found")

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

const userColumns = `id, email, username, picture, password_hash, provider, google_id, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Picture,
		&user.PasswordHash,
		&user.Provider,
		&user.GoogleID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (pg *PostgresUserStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
	INSERT INTO users (email, username, picture, password_hash, provider, google_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at;
	`

	err := pg.db.QueryRowContext(ctx, query,
		user.Email,
		user.Username,
		user.Picture,
		user.PasswordHash,
		user.Provider,
		user.GoogleID,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return fmt.Errorf("error running create user query: %w", err)
	}

	return nil
}

func (pg *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(pg.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error running get user by email query: %w", err)
	}
	return user, nil
}

func (pg *PostgresUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(pg.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error running get user by id query: %w", err)
	}
	return user, nil
}
