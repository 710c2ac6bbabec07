package rules

import (
	"sync"

	"github.com/threadly/threadly/internal/domain"
)

// Registry holds the per-platform extraction rule sets. Rules are loaded once
// from the built-in defaults and may be overridden wholesale per platform by
// an optional YAML file (see Loader).
type Registry struct {
	mu    sync.RWMutex
	rules map[domain.Platform]domain.PlatformRule
}

// NewRegistry creates a registry populated with the built-in default rules.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[domain.Platform]domain.PlatformRule, len(defaultRules))}
	for _, rule := range defaultRules {
		r.rules[rule.Platform] = rule
	}
	return r
}

// RuleFor returns the rule set for a platform. Unknown platforms have no
// rule payload.
func (r *Registry) RuleFor(p domain.Platform) (domain.PlatformRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[p]
	return rule, ok
}

// Apply replaces the rule for each given platform. Called by the loader
// after a successful parse; partial overrides keep defaults for platforms
// the file does not mention.
func (r *Registry) Apply(overrides []domain.PlatformRule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rule := range overrides {
		r.rules[rule.Platform] = rule
	}
}

// defaultRules is the built-in rule table. Selector fallbacks are ordered
// newest markup first; older selectors stay as drift absorbers.
var defaultRules = []domain.PlatformRule{
	{
		Platform:  domain.PlatformChatGPT,
		Container: domain.Locator{"main"},
		Turn:      domain.Locator{`article[data-testid*="conversation-turn"]`},
		User: domain.Locator{
			`div[data-message-author-role="user"] .text-base`,
			`div[data-message-author-role="user"]`,
		},
		Assistant: domain.Locator{
			`div[data-message-author-role="assistant"] .markdown`,
			`div[data-message-author-role="assistant"]`,
		},
		Filter: domain.ContentFilter{MinLength: 2},
	},
	{
		Platform:  domain.PlatformClaude,
		Container: domain.Locator{`[data-testid="conversation-turn-list"]`},
		Turn:      domain.Locator{`div[data-testid="conversation-turn"]`},
		User: domain.Locator{
			`div[data-testid="chat-user-message-content"]`,
		},
		Assistant: domain.Locator{
			`div[data-testid="chat-assistant-message-content"]`,
			`.font-claude-message`,
		},
		Filter: domain.ContentFilter{MinLength: 2},
	},
	{
		Platform:  domain.PlatformGemini,
		Container: domain.Locator{".conversation-container"},
		User:      domain.Locator{".query-text"},
		Assistant: domain.Locator{".model-response-text"},
		Filter: domain.ContentFilter{
			MinLength:    2,
			DenyKeywords: []string{"let me think", "thinking through"},
		},
	},
	{
		Platform:  domain.PlatformGrok,
		Container: domain.Locator{`div[style*="flex-direction: column;"]`},
		User:      domain.Locator{"div.user-message"},
		Assistant: domain.Locator{"div.response-message"},
		Filter: domain.ContentFilter{
			MinLength:     2,
			MaxUserLength: 4000,
		},
	},
	{
		Platform:  domain.PlatformAIStudio,
		Container: domain.Locator{".chat-history"},
		User:      domain.Locator{".user-query"},
		Assistant: domain.Locator{".model-response"},
		Filter: domain.ContentFilter{
			MinLength:    2,
			DenyKeywords: []string{"let me think", "let me analyze"},
		},
	},
	{
		Platform:  domain.PlatformPerplexity,
		Container: domain.Locator{"#main", "main"},
		User:      domain.Locator{`div[class*="request"] .prose`},
		Assistant: domain.Locator{`div[class*="answer"] .prose`},
		Filter: domain.ContentFilter{
			MinLength:     2,
			MaxUserLength: 4000,
		},
	},
}
