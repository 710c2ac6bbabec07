package rules

import (
	"strings"

	"github.com/threadly/threadly/internal/domain"
)

// hostEntry maps a hostname substring to a platform. Patterns are mutually
// exclusive by construction; first match wins.
type hostEntry struct {
	substr   string
	platform domain.Platform
}

var hostTable = []hostEntry{
	{"chat.openai.com", domain.PlatformChatGPT},
	{"chatgpt.com", domain.PlatformChatGPT},
	{"claude.ai", domain.PlatformClaude},
	{"gemini.google.com", domain.PlatformGemini},
	{"aistudio.google.com", domain.PlatformAIStudio},
	{"grok.com", domain.PlatformGrok},
	{"x.ai", domain.PlatformGrok},
	{"perplexity.ai", domain.PlatformPerplexity},
}

// Detect resolves a page hostname to a platform identifier by substring
// containment. Absence is never an error: unmatched hosts yield
// PlatformUnknown.
func Detect(host string) domain.Platform {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return domain.PlatformUnknown
	}
	for _, e := range hostTable {
		if strings.Contains(host, e.substr) {
			return e.platform
		}
	}
	return domain.PlatformUnknown
}
