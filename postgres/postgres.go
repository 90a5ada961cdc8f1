// Package postgres implements [builder.ProjectStore] and
// [builder.HistoryStore] on PostgreSQL using a pgx connection pool.
//
// Pages and components reference their project with ON DELETE CASCADE.
// Updates run in a transaction that locks the row, so UpdatedAt stays
// strictly increasing under concurrent writers.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/builder"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Interface compliance checks.
var (
	_ builder.ProjectStore = (*Store)(nil)
	_ builder.HistoryStore = (*Store)(nil)
)

// Store is a PostgreSQL-backed project and history store.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}

	s := &Store{pool: pool, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

const projectColumns = `id, name, description, ui, state, validation, git_provider, repo_name, created_at`

func scanProject(row pgx.Row) (builder.Project, error) {
	var p builder.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description,
		&p.TechStack.UI, &p.TechStack.State, &p.TechStack.Validation,
		&p.GitProvider, &p.RepoName, &p.CreatedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, err
}

// CreateProject inserts a project with a fresh id.
func (s *Store) CreateProject(ctx context.Context, in builder.ProjectInput) (builder.Project, error) {
	if err := in.Validate(); err != nil {
		return builder.Project{}, err
	}
	const q = `
insert into projects (` + projectColumns + `)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
returning ` + projectColumns
	p, err := scanProject(s.pool.QueryRow(ctx, q,
		uuid.NewString(), in.Name, in.Description,
		in.TechStack.UI, in.TechStack.State, in.TechStack.Validation,
		in.GitProvider, in.RepoName, builder.NextTimestamp(time.Time{})))
	if err != nil {
		return builder.Project{}, fmt.Errorf("postgres: create project: %w", err)
	}
	return p, nil
}

// Projects returns all projects in creation order.
func (s *Store) Projects(ctx context.Context) ([]builder.Project, error) {
	rows, err := s.pool.Query(ctx, `select `+projectColumns+` from projects order by seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list projects: %w", err)
	}
	defer rows.Close()

	var out []builder.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Project returns one project or an error wrapping [builder.ErrNotFound].
func (s *Store) Project(ctx context.Context, id string) (builder.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `select `+projectColumns+` from projects where id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return builder.Project{}, fmt.Errorf("postgres: project %s: %w", id, builder.ErrNotFound)
	}
	if err != nil {
		return builder.Project{}, fmt.Errorf("postgres: get project: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project; its pages and components go with it.
func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `delete from projects where id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("postgres: delete project: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// isForeignKeyViolation reports whether err is a missing-parent insert.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func trimmedName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// cloneStrings copies a scanned slice so callers never share backing arrays.
func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}
