package agent

// Definition is the static, process-wide agent configuration.
// It is constructed once at startup and never mutated.
type Definition struct {
	Name         string
	Instructions string
	Model        string
	Temperature  float64
	MaxTokens    int
}

// Message represents a message in the provider conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall represents a tool invocation requested by the model
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Tool describes a callable tool in provider-neutral form
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// TokenUsage tracks token consumption of one provider exchange
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Request contains the parameters of one provider call
type Request struct {
	Model        string
	Messages     []Message
	Tools        []Tool
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// Response contains the provider's reply
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}
