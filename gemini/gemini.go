// Package gemini implements [builder.Provider] and [builder.Completer] for
// the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Gemini has no structured
// artifact blocks, so a response is emitted as prose deltas only and file
// paths travel inside fenced code for the block parser to recover.
// Streaming uses the SDK's iter.Seq2 iterator, wrapped into the pull-based
// [builder.Stream] interface.
package gemini

const (
	defaultModel     = "gemini-2.5-pro"
	defaultMaxTokens = 65536
)
