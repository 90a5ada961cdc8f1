package gemini

import (
	"context"
	"iter"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// NewStreamFromIter exposes the stream adapter for tests.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) builder.Stream {
	return newStream(ctx, seq, zap.NewNop())
}
