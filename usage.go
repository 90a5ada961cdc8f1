package builder

// Usage tracks token consumption for one response. Providers normalize
// their API-specific fields to input and output token counts.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
