// Package anthropic implements [builder.Provider] and [builder.Completer] for
// the Anthropic Messages API.
//
// Streaming responses are read as SSE and translated one event at a time
// into the normalized [builder.Event] sequence. Content blocks of type
// "artifact" carry file metadata and become artifact events; all other
// text becomes prose deltas.
package anthropic

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 8192
	apiVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// apiCacheControl specifies a cache breakpoint for prompt caching.
type apiCacheControl struct {
	Type string `json:"type"` // always "ephemeral"
}

// apiRequest is the JSON body sent to the Anthropic Messages API.
type apiRequest struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	Stream      bool              `json:"stream"`
	System      []apiContentBlock `json:"system,omitempty"`
	Messages    []apiMessage      `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type         string           `json:"type"`
	Text         string           `json:"text,omitempty"`
	CacheControl *apiCacheControl `json:"cache_control,omitempty"`
}

// apiResponse is the body of a non-streaming response.
type apiResponse struct {
	Content    []apiResponseBlock `json:"content"`
	StopReason string             `json:"stop_reason"`
	Usage      sseUsage           `json:"usage"`
}

type apiResponseBlock struct {
	Type     string              `json:"type"`
	Text     string              `json:"text,omitempty"`
	ID       string              `json:"id,omitempty"`
	Metadata apiArtifactMetadata `json:"metadata"`
	Content  string              `json:"content,omitempty"`
}

// apiArtifactMetadata describes an artifact block.
type apiArtifactMetadata struct {
	ArtifactType string `json:"artifact_type,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	Language     string `json:"language,omitempty"`
}

// SSE response types.

type sseMessageStart struct {
	Type    string            `json:"type"`
	Message sseMessagePayload `json:"message"`
}

type sseMessagePayload struct {
	ID    string   `json:"id"`
	Model string   `json:"model"`
	Usage sseUsage `json:"usage"`
}

type sseUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// sseDeltaUsage is used in message_delta events. Input tokens may be absent.
type sseDeltaUsage struct {
	OutputTokens int  `json:"output_tokens"`
	InputTokens  *int `json:"input_tokens,omitempty"`
}

type sseContentBlockStart struct {
	Type         string          `json:"type"`
	Index        int             `json:"index"`
	ContentBlock sseContentBlock `json:"content_block"`
}

type sseContentBlock struct {
	Type     string              `json:"type"`
	ID       string              `json:"id,omitempty"`
	Text     string              `json:"text,omitempty"`
	Metadata apiArtifactMetadata `json:"metadata"`
}

type sseContentBlockDelta struct {
	Type  string   `json:"type"`
	Index int      `json:"index"`
	Delta sseDelta `json:"delta"`
}

type sseDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type sseContentBlockStop struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type sseMessageDelta struct {
	Type  string             `json:"type"`
	Delta sseMessageDeltaVal `json:"delta"`
	Usage sseDeltaUsage      `json:"usage"`
}

type sseMessageDeltaVal struct {
	StopReason *string `json:"stop_reason"`
}

type sseError struct {
	Type  string         `json:"type"`
	Error sseErrorDetail `json:"error"`
}

type sseErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// apiErrorResponse is the JSON body returned on non-200 HTTP responses.
type apiErrorResponse struct {
	Type  string         `json:"type"`
	Error sseErrorDetail `json:"error"`
}
