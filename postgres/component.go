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

const componentColumns = `id, project_id, name, type, code, props, style, preview, created_at, updated_at`

// propRow is the jsonb shape of one prop.
type propRow struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func toPropRows(ps []builder.Prop) []propRow {
	out := make([]propRow, len(ps))
	for i, p := range ps {
		out[i] = propRow(p)
	}
	return out
}

func scanComponent(row pgx.Row) (builder.Component, error) {
	var c builder.Component
	var typ string
	var props []propRow
	var style map[string]string
	err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &typ, &c.Code,
		&props, &style, &c.Preview, &c.CreatedAt, &c.UpdatedAt)
	c.Type = builder.ComponentType(typ)
	for _, p := range props {
		c.Props = append(c.Props, builder.Prop(p))
	}
	if len(style) > 0 {
		c.Style = style
	}
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return c, err
}

func styleValue(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// AddComponent inserts a component with a fresh id. An empty Type defaults
// to [builder.ComponentUI].
func (s *Store) AddComponent(ctx context.Context, projectID string, in builder.ComponentInput) (builder.Component, error) {
	if !trimmedName(in.Name) {
		return builder.Component{}, fmt.Errorf("postgres: component name must not be empty: %w", builder.ErrValidation)
	}
	typ := in.Type
	if typ == "" {
		typ = builder.ComponentUI
	}
	now := builder.NextTimestamp(time.Time{})
	const q = `
insert into components (` + componentColumns + `)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
returning ` + componentColumns
	c, err := scanComponent(s.pool.QueryRow(ctx, q,
		uuid.NewString(), projectID, in.Name, string(typ), in.Code,
		toPropRows(in.Props), styleValue(in.Style), in.Preview, now))
	if isForeignKeyViolation(err) {
		return builder.Component{}, fmt.Errorf("postgres: project %s: %w", projectID, builder.ErrNotFound)
	}
	if err != nil {
		return builder.Component{}, fmt.Errorf("postgres: add component: %w", err)
	}
	return c, nil
}

// UpdateComponent merges u over the component inside a row-locking
// transaction.
func (s *Store) UpdateComponent(ctx context.Context, projectID, id string, u builder.ComponentUpdate) (builder.Component, bool, error) {
	var out builder.Component
	found := true
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := scanComponent(tx.QueryRow(ctx,
			`select `+componentColumns+` from components where project_id = $1 and id = $2 for update`, projectID, id))
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		u.Apply(&c)
		c.UpdatedAt = builder.NextTimestamp(c.UpdatedAt)
		const q = `
update components
set name = $3, type = $4, code = $5, props = $6, style = $7, preview = $8, updated_at = $9
where project_id = $1 and id = $2
returning ` + componentColumns
		out, err = scanComponent(tx.QueryRow(ctx, q, projectID, id,
			c.Name, string(c.Type), c.Code, toPropRows(c.Props), styleValue(c.Style), c.Preview, c.UpdatedAt))
		return err
	})
	if err != nil {
		return builder.Component{}, false, fmt.Errorf("postgres: update component: %w", err)
	}
	return out, found, nil
}

// DeleteComponent removes one component.
func (s *Store) DeleteComponent(ctx context.Context, projectID, id string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `delete from components where project_id = $1 and id = $2`, projectID, id)
	if err != nil {
		return false, fmt.Errorf("postgres: delete component: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// ProjectComponents lists the project's components in insertion order.
func (s *Store) ProjectComponents(ctx context.Context, projectID string) ([]builder.Component, error) {
	rows, err := s.pool.Query(ctx, `select `+componentColumns+` from components where project_id = $1 order by seq`, projectID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list components: %w", err)
	}
	defer rows.Close()

	out := []builder.Component{}
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan component: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
