// Package extract turns a live document and a platform rule set into an
// ordered sequence of raw messages. Extraction only reads the page; it never
// mutates it.
package extract

import (
	"time"

	"github.com/threadly/threadly/internal/dom"
	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/logger"
)

// Extractor maps a document tree to messages under one platform's rules.
type Extractor struct {
	logger logger.Logger
}

// New creates an extractor.
func New(log logger.Logger) *Extractor {
	return &Extractor{logger: log}
}

// Extract produces the ordered message sequence for one pass. A page where
// no locator resolves yields an empty sequence, never an error.
func (e *Extractor) Extract(doc dom.Document, rule domain.PlatformRule, platform domain.Platform, path string) []*domain.Message {
	now := time.Now()

	messages := e.extract(doc, rule, platform, path, now)
	e.logger.Debug("extraction pass",
		logger.String("platform", string(platform)),
		logger.String("path", path),
		logger.Int("messages", len(messages)))
	return messages
}

func (e *Extractor) extract(doc dom.Document, rule domain.PlatformRule, platform domain.Platform, path string, now time.Time) []*domain.Message {
	if !rule.Turn.Empty() {
		if messages := e.extractTurns(doc, rule, platform, path, now); len(messages) > 0 {
			return messages
		}
		// Turn markup drifted away; fall through to the flat locators.
	}
	return e.extractFlat(doc, rule, platform, path, now)
}

// extractTurns iterates per-turn containers in document order and emits up
// to two messages per turn, user first.
func (e *Extractor) extractTurns(doc dom.Document, rule domain.PlatformRule, platform domain.Platform, path string, now time.Time) []*domain.Message {
	_, turns := resolve(rule.Turn, doc.Query)

	var out []*domain.Message
	for _, turn := range turns {
		if msg := e.firstMessage(turn, rule.User, domain.RoleUser, rule.Filter, platform, path, now); msg != nil {
			out = append(out, msg)
		}
		if msg := e.firstMessage(turn, rule.Assistant, domain.RoleAssistant, rule.Filter, platform, path, now); msg != nil {
			out = append(out, msg)
		}
	}
	return out
}

// extractFlat queries both role locators against the whole document. To keep
// a deterministic order across the two independent queries, the winning
// expressions are re-queried as one combined selector group (document order)
// and each node is classified back to its role, user taking precedence when
// a node matches both.
func (e *Extractor) extractFlat(doc dom.Document, rule domain.PlatformRule, platform domain.Platform, path string, now time.Time) []*domain.Message {
	userExpr, userNodes := resolve(rule.User, doc.Query)
	assistantExpr, assistantNodes := resolve(rule.Assistant, doc.Query)

	var out []*domain.Message
	switch {
	case userExpr == "" && assistantExpr == "":
		return nil
	case assistantExpr == "":
		for _, n := range userNodes {
			out = e.appendMessage(out, n, domain.RoleUser, rule.Filter, platform, path, now)
		}
	case userExpr == "":
		for _, n := range assistantNodes {
			out = e.appendMessage(out, n, domain.RoleAssistant, rule.Filter, platform, path, now)
		}
	default:
		for _, n := range doc.Query(userExpr + ", " + assistantExpr) {
			role := domain.RoleAssistant
			if n.Matches(userExpr) {
				role = domain.RoleUser
			}
			out = e.appendMessage(out, n, role, rule.Filter, platform, path, now)
		}
	}
	return out
}

// firstMessage resolves a locator inside one turn and builds a message from
// the first non-empty match.
func (e *Extractor) firstMessage(turn dom.Node, loc domain.Locator, role domain.Role, filter domain.ContentFilter, platform domain.Platform, path string, now time.Time) *domain.Message {
	_, nodes := resolve(loc, turn.Query)
	if len(nodes) == 0 {
		return nil
	}
	node := nodes[0]
	text := node.Text()
	if text == "" || !filter.Accept(role, text) {
		return nil
	}
	return &domain.Message{
		Role:       role,
		Content:    text,
		Platform:   platform,
		Path:       path,
		CapturedAt: now,
		Node:       node,
	}
}

func (e *Extractor) appendMessage(out []*domain.Message, node dom.Node, role domain.Role, filter domain.ContentFilter, platform domain.Platform, path string, now time.Time) []*domain.Message {
	text := node.Text()
	if text == "" || !filter.Accept(role, text) {
		return out
	}
	return append(out, &domain.Message{
		Role:       role,
		Content:    text,
		Platform:   platform,
		Path:       path,
		CapturedAt: now,
		Node:       node,
	})
}

// resolve tries a locator's fallback expressions in priority order and
// returns the first expression that yields at least one non-empty-text
// match, with its nodes. Later fallbacks are skipped.
func resolve(loc domain.Locator, query func(string) []dom.Node) (string, []dom.Node) {
	for _, expr := range loc {
		nodes := query(expr)
		if len(nodes) == 0 {
			continue
		}
		for _, n := range nodes {
			if n.Text() != "" {
				return expr, nodes
			}
		}
	}
	return "", nil
}

// ResolveContainer finds the conversation container for a rule, or nil when
// the page has not produced it yet.
func ResolveContainer(doc dom.Document, rule domain.PlatformRule) dom.Node {
	for _, expr := range rule.Container {
		if nodes := doc.Query(expr); len(nodes) > 0 {
			return nodes[0]
		}
	}
	return nil
}
