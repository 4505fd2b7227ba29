package schema

// AgentSettings holds the per-agent knobs passed to the conversation loop.
type AgentSettings struct {
	Model            string
	MaxToolIter      int // tool-execution rounds allowed per user turn
	Temperature      float64
	MaxTokens        int // response token cap per completion
	MaxContextTokens int // transcript budget before trimming kicks in
}

func NewAgentSettings(model string, maxToolIter int, temperature float64, maxTokens, maxContextTokens int) AgentSettings {
	return AgentSettings{
		Model:            model,
		MaxToolIter:      maxToolIter,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		MaxContextTokens: maxContextTokens,
	}
}
