package domain

// Platform identifies one supported chat web application.
// The set is closed: unknown hosts map to PlatformUnknown, which carries no
// rule payload.
type Platform string

const (
	PlatformChatGPT    Platform = "chatgpt"
	PlatformClaude     Platform = "claude"
	PlatformGemini     Platform = "gemini"
	PlatformGrok       Platform = "grok"
	PlatformAIStudio   Platform = "ai-studio"
	PlatformPerplexity Platform = "perplexity"
	PlatformUnknown    Platform = "unknown"
)

// Known reports whether p is a supported platform (not unknown).
func (p Platform) Known() bool {
	switch p {
	case PlatformChatGPT, PlatformClaude, PlatformGemini,
		PlatformGrok, PlatformAIStudio, PlatformPerplexity:
		return true
	}
	return false
}

// DisplayName returns the human-readable platform name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformChatGPT:
		return "ChatGPT"
	case PlatformClaude:
		return "Claude"
	case PlatformGemini:
		return "Gemini"
	case PlatformGrok:
		return "Grok"
	case PlatformAIStudio:
		return "AI Studio"
	case PlatformPerplexity:
		return "Perplexity"
	default:
		return "Unknown"
	}
}
