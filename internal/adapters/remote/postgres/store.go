// Package postgres is the remote leaderboard store: a pgx pool over the
// leaderboard table plus the schema that makes the table announce changes.
package postgres

import (
	"context"
	_ "embed"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/pkg/errs"
)

const (
	listSQL = `SELECT id::text, team_name, year, department, time_taken
FROM leaderboard
ORDER BY time_taken ASC`

	insertSQL = `INSERT INTO leaderboard (team_name, year, department, time_taken)
VALUES ($1, $2, $3, $4)`

	deleteSQL = `DELETE FROM leaderboard WHERE id = $1`

	defaultUser = "postgres"
)

//go:embed schema.sql
var schemaTemplate string

// Store implements the remote store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// DSN combines the store URL with the credential. The key becomes the
// connection password; a user already in the URL is kept.
func DSN(storeURL, storeKey string) (string, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return "", errs.Wrap("postgres.DSN", err)
	}
	user := defaultUser
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, storeKey)
	return u.String(), nil
}

// Open connects and pings. Any failure is ErrUnreachable.
func Open(ctx context.Context, dsn string) (*Store, error) {
	const op = "postgres.Open"
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.WrapKind(op, ErrUnreachable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.WrapKind(op, ErrUnreachable, err)
	}
	return &Store{pool: pool}, nil
}

// List returns every row ordered by time_taken ascending.
func (s *Store) List(ctx context.Context) ([]model.Entry, error) {
	const op = "postgres.List"
	rows, err := s.pool.Query(ctx, listSQL)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Entry, error) {
		var (
			e    model.Entry
			year string
		)
		err := row.Scan(&e.ID, &e.TeamName, &year, &e.Department, &e.TimeTaken)
		e.Year = model.Year(year)
		return e, err
	})
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	return entries, nil
}

// Insert adds one row. The id is assigned by the database.
func (s *Store) Insert(ctx context.Context, e model.NewEntry) error {
	_, err := s.pool.Exec(ctx, insertSQL, e.TeamName, string(e.Year), e.Department, e.TimeTaken)
	return errs.Wrap("postgres.Insert", err)
}

// Delete removes the row with id. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "postgres.Delete"
	uid, err := uuid.Parse(id)
	if err != nil {
		return errs.WrapKind(op, ErrInvalidID, err)
	}
	_, err = s.pool.Exec(ctx, deleteSQL, uid)
	return errs.Wrap(op, err)
}

// Migrate creates the table and the trigger that notifies channel on every change.
func (s *Store) Migrate(ctx context.Context, channel string) error {
	_, err := s.pool.Exec(ctx, Schema(channel))
	return errs.Wrap("postgres.Migrate", err)
}

// Schema renders the migration for channel.
func Schema(channel string) string {
	return strings.ReplaceAll(schemaTemplate, "{{channel}}", pq.QuoteLiteral(channel))
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
