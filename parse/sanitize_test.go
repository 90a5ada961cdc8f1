package parse_test

import (
	"testing"

	"github.com/fwojciec/builder/parse"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	t.Run("passes plain text through unchanged", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello world", parse.Sanitize("hello world"))
	})

	t.Run("strips ANSI color codes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello", parse.Sanitize("\x1b[31mhello\x1b[0m"))
	})

	t.Run("preserves tabs and newlines", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "a\tb\nc", parse.Sanitize("a\tb\nc"))
	})

	t.Run("removes control characters", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "abc", parse.Sanitize("a\x01b\x02c\x07"))
	})

	t.Run("normalizes CRLF to LF", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "a\nb", parse.Sanitize("a\r\nb"))
	})

	t.Run("carriage return overwrites", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Xbc", parse.Sanitize("abc\rX"))
	})
}
