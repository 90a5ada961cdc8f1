package main

import (
	"context"
	"testing"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFindTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, closeStore, err := openStore(ctx, config.StoreConfig{Driver: "json", Dir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()
	p, _, err := builder.SetupProject(ctx, s, builder.ProjectInput{Name: "Shop"})
	require.NoError(t, err)

	t.Run("page by route", func(t *testing.T) {
		target, label, err := findTarget(ctx, s, p.ID, "/about")
		require.NoError(t, err)
		assert.Equal(t, builder.KindPage, target.Kind)
		assert.Contains(t, target.Content, "AboutPage")
		assert.Equal(t, "About (/about)", label)
	})

	t.Run("missing page", func(t *testing.T) {
		_, _, err := findTarget(ctx, s, p.ID, "/pricing")
		require.ErrorIs(t, err, builder.ErrNotFound)
	})

	t.Run("component is created on first use", func(t *testing.T) {
		target, label, err := findTarget(ctx, s, p.ID, "Hero")
		require.NoError(t, err)
		assert.Equal(t, builder.KindComponent, target.Kind)
		assert.Equal(t, "Hero", label)

		again, _, err := findTarget(ctx, s, p.ID, "Hero")
		require.NoError(t, err)
		assert.Equal(t, target.ID, again.ID)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, _, err := findTarget(ctx, s, "nope", "/")
		require.ErrorIs(t, err, builder.ErrNotFound)
	})
}

func TestOpenPreview_Memory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pc, err := openPreview(ctx, config.PreviewConfig{Backend: "memory"}, zap.NewNop())
	require.NoError(t, err)
	defer pc.close()

	require.NoError(t, pc.Publish(ctx, "<div />"))
	got, err := pc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<div />", got)
}
