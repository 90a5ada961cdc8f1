package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/builder"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pageColumns = `id, project_id, name, path, content, components, apis, description, created_at, updated_at`

func scanPage(row pgx.Row) (builder.Page, error) {
	var p builder.Page
	var comps, apis []string
	err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Path, &p.Content,
		&comps, &apis, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	p.Components = cloneStrings(comps)
	p.APIs = cloneStrings(apis)
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return p, err
}

// AddPage inserts a page with a fresh id. Path uniqueness is left to the
// caller.
func (s *Store) AddPage(ctx context.Context, projectID string, in builder.PageInput) (builder.Page, error) {
	now := builder.NextTimestamp(time.Time{})
	const q = `
insert into pages (` + pageColumns + `)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
returning ` + pageColumns
	p, err := scanPage(s.pool.QueryRow(ctx, q,
		uuid.NewString(), projectID, in.Name, builder.NormalizeRoute(in.Path), in.Content,
		nonNil(in.Components), nonNil(in.APIs), in.Description, now))
	if isForeignKeyViolation(err) {
		return builder.Page{}, fmt.Errorf("postgres: project %s: %w", projectID, builder.ErrNotFound)
	}
	if err != nil {
		return builder.Page{}, fmt.Errorf("postgres: add page: %w", err)
	}
	return p, nil
}

// UpdatePage merges u over the page inside a row-locking transaction.
func (s *Store) UpdatePage(ctx context.Context, projectID, id string, u builder.PageUpdate) (builder.Page, bool, error) {
	var out builder.Page
	found := true
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		p, err := scanPage(tx.QueryRow(ctx,
			`select `+pageColumns+` from pages where project_id = $1 and id = $2 for update`, projectID, id))
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		u.Apply(&p)
		p.UpdatedAt = builder.NextTimestamp(p.UpdatedAt)
		const q = `
update pages
set name = $3, path = $4, content = $5, components = $6, apis = $7, description = $8, updated_at = $9
where project_id = $1 and id = $2
returning ` + pageColumns
		out, err = scanPage(tx.QueryRow(ctx, q, projectID, id,
			p.Name, p.Path, p.Content, nonNil(p.Components), nonNil(p.APIs), p.Description, p.UpdatedAt))
		return err
	})
	if err != nil {
		return builder.Page{}, false, fmt.Errorf("postgres: update page: %w", err)
	}
	return out, found, nil
}

// DeletePage removes one page.
func (s *Store) DeletePage(ctx context.Context, projectID, id string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `delete from pages where project_id = $1 and id = $2`, projectID, id)
	if err != nil {
		return false, fmt.Errorf("postgres: delete page: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// ProjectPages lists the project's pages in insertion order.
func (s *Store) ProjectPages(ctx context.Context, projectID string) ([]builder.Page, error) {
	rows, err := s.pool.Query(ctx, `select `+pageColumns+` from pages where project_id = $1 order by seq`, projectID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pages: %w", err)
	}
	defer rows.Close()

	out := []builder.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
