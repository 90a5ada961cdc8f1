package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/builder"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type messageRow struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	CodeBlocks []codeBlockRow `json:"code_blocks,omitempty"`
}

type codeBlockRow struct {
	FilePath string `json:"file_path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// LoadHistory returns the chat history of an entity; unknown entities
// yield an empty history.
func (s *Store) LoadHistory(ctx context.Context, entityID string) (builder.ChatHistory, error) {
	h := builder.ChatHistory{EntityID: entityID}
	var rows []messageRow
	err := s.pool.QueryRow(ctx, `select messages, updated_at from chat_histories where entity_id = $1`, entityID).
		Scan(&rows, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return h, nil
	}
	if err != nil {
		return builder.ChatHistory{}, fmt.Errorf("postgres: load history: %w", err)
	}
	h.UpdatedAt = h.UpdatedAt.UTC()
	for _, r := range rows {
		m := builder.ChatMessage{ID: r.ID, Role: builder.Role(r.Role), Content: r.Content, Timestamp: r.Timestamp}
		for _, b := range r.CodeBlocks {
			m.CodeBlocks = append(m.CodeBlocks, builder.CodeBlock(b))
		}
		h.Messages = append(h.Messages, m)
	}
	return h, nil
}

// SaveHistory replaces the chat history of an entity.
func (s *Store) SaveHistory(ctx context.Context, h builder.ChatHistory) error {
	if h.EntityID == "" {
		return fmt.Errorf("postgres: empty entity id: %w", builder.ErrValidation)
	}
	rows := make([]messageRow, len(h.Messages))
	for i, m := range h.Messages {
		rows[i] = messageRow{ID: m.ID, Role: string(m.Role), Content: m.Content, Timestamp: m.Timestamp}
		for _, b := range m.CodeBlocks {
			rows[i].CodeBlocks = append(rows[i].CodeBlocks, codeBlockRow(b))
		}
	}
	updated := h.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	const q = `
insert into chat_histories (entity_id, messages, updated_at)
values ($1, $2, $3)
on conflict (entity_id) do update set messages = excluded.messages, updated_at = excluded.updated_at`
	if _, err := s.pool.Exec(ctx, q, h.EntityID, rows, updated); err != nil {
		s.log.Error("history write failed", zap.String("entity", h.EntityID), zap.Error(err))
		return fmt.Errorf("postgres: save history: %w", err)
	}
	return nil
}
