package llm

import "context"

// Message is one turn of a conversation handed to a provider.
type Message struct {
	Role    string
	Content string
}

// Completion is the provider-agnostic result of a generation call.
type Completion struct {
	Content      string
	Model        string
	ProcessingMS int
}

// defines the interface for LLM providers
type Provider interface {
	Complete(ctx context.Context, system string, history []Message) (*Completion, error)
	GetProviderName() string
}

// represents an error from an LLM provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

// Common error codes
// For current and future use across different providers
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)
