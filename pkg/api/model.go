package api

// ModelInfo describes a model a provider can serve. Static catalog entries and
// discovered entries share this shape.
type ModelInfo struct {
	Name            string `json:"name" mapstructure:"name" yaml:"name"`
	Label           string `json:"label" mapstructure:"label" yaml:"label"`
	Provider        string `json:"provider" mapstructure:"provider" yaml:"provider"`
	MaxTokenAllowed int    `json:"maxTokenAllowed" mapstructure:"max_token_allowed" yaml:"max_token_allowed"`
}

// ModelList is the response body of the models endpoint.
type ModelList struct {
	Object  string      `json:"object"`
	Outcome string      `json:"outcome"`
	Source  string      `json:"source"`
	Reason  string      `json:"reason,omitempty"`
	Data    []ModelInfo `json:"data"`
}

// Message is a single chat turn sent through a model handle.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content" binding:"required"`
}

// CompletionRequest runs a conversation through a provider's model handle.
type CompletionRequest struct {
	Model    string    `json:"model" binding:"required"`
	Messages []Message `json:"messages" binding:"required,min=1,dive"`
}

type CompletionResponse struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Content  string `json:"content"`
}
