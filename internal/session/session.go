package session

// Input is the payload the host writes to stdin once per render.
type Input struct {
	Cwd            string         `json:"cwd"`
	TranscriptPath string         `json:"transcript_path"`
	Model          Model          `json:"model"`
	ContextWindow  *ContextWindow `json:"context_window,omitempty"`
}

// Model describes the active model.
type Model struct {
	DisplayName string `json:"display_name"`
}

// ContextWindow reports how much of the model's context is in use.
// Every field is optional in the payload.
type ContextWindow struct {
	CurrentUsage *CurrentUsage `json:"current_usage,omitempty"`
	Size         *uint64       `json:"context_window_size,omitempty"`
}

// CurrentUsage breaks the current token count down by category.
type CurrentUsage struct {
	InputTokens              *uint64 `json:"input_tokens,omitempty"`
	CacheCreationInputTokens *uint64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *uint64 `json:"cache_read_input_tokens,omitempty"`
}

// Tokens returns the sum of the input, cache-creation and cache-read counts,
// treating absent categories as zero.
func (u *CurrentUsage) Tokens() uint64 {
	if u == nil {
		return 0
	}
	return deref(u.InputTokens) + deref(u.CacheCreationInputTokens) + deref(u.CacheReadInputTokens)
}

// WindowSize returns the declared context window size, or 0 when absent.
func (c *ContextWindow) WindowSize() uint64 {
	if c == nil {
		return 0
	}
	return deref(c.Size)
}

func deref(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
