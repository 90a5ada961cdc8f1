package json

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/builder"
)

func (s *Store) historyPath(entityID string) (string, error) {
	if entityID == "" || strings.ContainsAny(entityID, `/\`) || strings.Contains(entityID, "..") {
		return "", fmt.Errorf("json: invalid entity id %q: %w", entityID, builder.ErrValidation)
	}
	return filepath.Join(s.dir, historyDir, entityID+".json"), nil
}

// LoadHistory returns the chat history of an entity. An entity without
// saved history yields an empty history.
func (s *Store) LoadHistory(_ context.Context, entityID string) (builder.ChatHistory, error) {
	path, err := s.historyPath(entityID)
	if err != nil {
		return builder.ChatHistory{}, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return builder.ChatHistory{EntityID: entityID}, nil
	}
	var env historyEnvelope
	if err := readEnvelope(path, &env, &env.Version); err != nil {
		return builder.ChatHistory{}, err
	}
	h := builder.ChatHistory{EntityID: entityID, UpdatedAt: env.UpdatedAt}
	for _, m := range env.Messages {
		h.Messages = append(h.Messages, fromMessageDTO(m))
	}
	return h, nil
}

// SaveHistory writes the chat history of an entity.
func (s *Store) SaveHistory(_ context.Context, h builder.ChatHistory) error {
	path, err := s.historyPath(h.EntityID)
	if err != nil {
		return err
	}
	env := historyEnvelope{
		Version:   version,
		EntityID:  h.EntityID,
		UpdatedAt: h.UpdatedAt,
		Messages:  make([]messageDTO, len(h.Messages)),
	}
	for i, m := range h.Messages {
		env.Messages[i] = toMessageDTO(m)
	}
	if err := writeFile(path, env); err != nil {
		return fmt.Errorf("json: save history %s: %w", h.EntityID, err)
	}
	return nil
}
