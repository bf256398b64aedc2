// Package postgresdb provides the PostgreSQL-backed implementation of the
// credential store: durable persistence of users and their shortened URLs.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mkravets/urlbox/internal/models"
	"github.com/mkravets/urlbox/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is the PostgreSQL credential store. It owns a database/sql
// pool opened through the pgx stdlib driver.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

// New opens a connection pool to the database, runs the goose migrations
// from migrationsDir and returns a configured PostgresDB.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("goose.SetDialect: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("goose.Up: %w", err)
	}

	return result, nil
}

// CreateUser inserts a new user row and returns its id. A violation of the
// username uniqueness constraint maps to models.ErrUsernameTaken.
func (db *PostgresDB) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (username, password_credential) VALUES ($1, $2) RETURNING id`,
		username,
		passwordHash,
	)

	var userID int64
	if err := row.Scan(&userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, models.ErrUsernameTaken
		}

		return 0, err
	}

	return userID, nil
}

// FindUserByUsername fetches a user by username. The boolean reports
// whether the user exists.
func (db *PostgresDB) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, password_credential, created_at FROM users WHERE username = $1`,
		username,
	)

	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Username, &usr.PasswordHash, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return usr, true, nil
}

// GetUserURLs returns all URL pairs of the user in creation order.
func (db *PostgresDB) GetUserURLs(ctx context.Context, userID int64) (models.UserURLs, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT original_url, short_url FROM urls WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := models.UserURLs{}
	for rows.Next() {
		var item models.UserURL
		if err := rows.Scan(&item.OriginalURL, &item.ShortURL); err != nil {
			return nil, err
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Ping verifies connectivity with the database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the connection pool.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}
