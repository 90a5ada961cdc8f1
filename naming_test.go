package builder_test

import (
	"testing"
	"time"

	"github.com/fwojciec/builder"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"about", "/about"},
		{"/about/", "/about"},
		{"//blog//posts/", "/blog/posts"},
		{"  /contact ", "/contact"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, builder.NormalizeRoute(tt.in))
		})
	}
}

func TestIsPascalCase(t *testing.T) {
	t.Parallel()
	assert.True(t, builder.IsPascalCase("Button"))
	assert.True(t, builder.IsPascalCase("HeroBanner2"))
	assert.False(t, builder.IsPascalCase("button"))
	assert.False(t, builder.IsPascalCase("book-list"))
	assert.False(t, builder.IsPascalCase(""))
}

func TestSlug(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "my-shop", builder.Slug("My Shop"))
	assert.Equal(t, "a-b-c", builder.Slug("  a__b--c!! "))
	assert.Equal(t, "", builder.Slug("!!!"))
}

func TestNextTimestamp_StrictlyIncreasing(t *testing.T) {
	t.Parallel()
	future := time.Now().Add(time.Hour)

	got := builder.NextTimestamp(future)

	assert.True(t, got.After(future))
	assert.Equal(t, future.UTC().Truncate(time.Microsecond).Add(time.Microsecond), got)
}

func TestNextTimestamp_Sequence(t *testing.T) {
	t.Parallel()
	var prev time.Time
	for range 1000 {
		next := builder.NextTimestamp(prev)
		assert.True(t, next.After(prev))
		prev = next
	}
}
