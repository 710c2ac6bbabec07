package domain

import "strings"

// Locator is an ordered list of fallback query expressions. Callers try each
// expression in priority order and stop at the first one that yields a
// non-empty-text match; this absorbs markup drift across site redesigns.
type Locator []string

// Empty reports whether the locator has no expressions at all.
func (l Locator) Empty() bool {
	return len(l) == 0
}

// Combined joins all expressions into a single selector group.
func (l Locator) Combined() string {
	return strings.Join(l, ", ")
}

// PlatformRule is the immutable lookup rule set for one platform.
//
// When Turn is non-empty the extractor iterates per-turn containers and
// resolves User/Assistant within each turn. Otherwise User/Assistant are
// queried flat against the whole document.
type PlatformRule struct {
	// Platform tags the rule.
	Platform Platform `yaml:"platform"`

	// Container locates the subtree that holds the conversation. Also the
	// mutation-observation root.
	Container Locator `yaml:"container"`

	// Turn locates one conversational turn (optional).
	Turn Locator `yaml:"turn,omitempty"`

	// User locates user-authored content.
	User Locator `yaml:"user"`

	// Assistant locates assistant-authored content (optional: some sites
	// only expose user prompts reliably).
	Assistant Locator `yaml:"assistant,omitempty"`

	// Filter rejects candidate text that is likely not a real message.
	Filter ContentFilter `yaml:"filter,omitempty"`
}

// ContentFilter is a data-driven predicate table rejecting extraction
// candidates: UI chrome, misclassified input boxes, captured reasoning
// traces. New platforms or drift fixes are additive data changes here, not
// control-flow changes in the extractor.
type ContentFilter struct {
	// MinLength rejects text shorter than this many runes (any role).
	MinLength int `yaml:"min_length,omitempty"`

	// MaxUserLength rejects user-role text longer than this many runes,
	// likely page text misclassified as user input. Zero disables.
	MaxUserLength int `yaml:"max_user_length,omitempty"`

	// DenyKeywords rejects assistant-role text containing any of these
	// substrings (case-insensitive). Used to drop meta-commentary such as
	// "let me think" that indicates a reasoning trace, not a final answer.
	DenyKeywords []string `yaml:"deny_keywords,omitempty"`
}

// Accept reports whether text passes the filter for the given role.
func (f ContentFilter) Accept(role Role, text string) bool {
	runes := []rune(text)
	if f.MinLength > 0 && len(runes) < f.MinLength {
		return false
	}
	if role == RoleUser && f.MaxUserLength > 0 && len(runes) > f.MaxUserLength {
		return false
	}
	if role == RoleAssistant && len(f.DenyKeywords) > 0 {
		lower := strings.ToLower(text)
		for _, kw := range f.DenyKeywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				return false
			}
		}
	}
	return true
}
