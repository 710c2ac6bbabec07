package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threadly/threadly/internal/dom/memdom"
	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/logger"
)

var turnRule = domain.PlatformRule{
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
}

var flatRule = domain.PlatformRule{
	Platform:  domain.PlatformGemini,
	Container: domain.Locator{".conversation-container"},
	User:      domain.Locator{".query-text"},
	Assistant: domain.Locator{".model-response-text"},
	Filter:    domain.ContentFilter{MinLength: 2},
}

func turn(id, userText, assistantText string) *memdom.Node {
	t := memdom.NewNode("article").WithAttr("data-testid", "conversation-turn-"+id)
	if userText != "" {
		t.WithChild(memdom.NewNode("div").WithAttr("data-message-author-role", "user").
			WithChild(memdom.NewNode("div").WithClass("text-base").WithText(userText)))
	}
	if assistantText != "" {
		t.WithChild(memdom.NewNode("div").WithAttr("data-message-author-role", "assistant").
			WithChild(memdom.NewNode("div").WithClass("markdown").WithText(assistantText)))
	}
	return t
}

func TestExtractTurnBased(t *testing.T) {
	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("main").
		WithChild(turn("1", "first question", "first answer")).
		WithChild(turn("2", "second question", "second answer")))

	got := New(logger.Nop()).Extract(doc, turnRule, domain.PlatformChatGPT, "/c/abc")

	require.Len(t, got, 4)
	require.Equal(t, domain.RoleUser, got[0].Role)
	require.Equal(t, "first question", got[0].Content)
	require.Equal(t, domain.RoleAssistant, got[1].Role)
	require.Equal(t, "first answer", got[1].Content)
	require.Equal(t, "second question", got[2].Content)
	require.Equal(t, "second answer", got[3].Content)

	require.Equal(t, domain.PlatformChatGPT, got[0].Platform)
	require.Equal(t, "/c/abc", got[0].Path)
	require.False(t, got[0].CapturedAt.IsZero())
	require.NotNil(t, got[0].Node)
}

func TestExtractTurnMissingRole(t *testing.T) {
	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("main").
		WithChild(turn("1", "question pending answer", "")))

	got := New(logger.Nop()).Extract(doc, turnRule, domain.PlatformChatGPT, "/c/abc")

	require.Len(t, got, 1)
	require.Equal(t, domain.RoleUser, got[0].Role)
}

func TestExtractLocatorFallback(t *testing.T) {
	// No .text-base wrapper: the second fallback expression must win.
	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("main").
		WithChild(memdom.NewNode("article").WithAttr("data-testid", "conversation-turn-1").
			WithChild(memdom.NewNode("div").WithAttr("data-message-author-role", "user").
				WithText("bare user text"))))

	got := New(logger.Nop()).Extract(doc, turnRule, domain.PlatformChatGPT, "/c/abc")

	require.Len(t, got, 1)
	require.Equal(t, "bare user text", got[0].Content)
}

func TestExtractFallsBackToFlatWhenTurnsVanish(t *testing.T) {
	// Turn markup drifted away but the role locators still resolve.
	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("main").
		WithChild(memdom.NewNode("div").WithAttr("data-message-author-role", "user").
			WithChild(memdom.NewNode("div").WithClass("text-base").WithText("drifted question"))).
		WithChild(memdom.NewNode("div").WithAttr("data-message-author-role", "assistant").
			WithChild(memdom.NewNode("div").WithClass("markdown").WithText("drifted answer"))))

	got := New(logger.Nop()).Extract(doc, turnRule, domain.PlatformChatGPT, "/c/abc")

	require.Len(t, got, 2)
	require.Equal(t, domain.RoleUser, got[0].Role)
	require.Equal(t, "drifted question", got[0].Content)
	require.Equal(t, domain.RoleAssistant, got[1].Role)
}

func TestExtractFlatInterleavesInDocumentOrder(t *testing.T) {
	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("div").WithClass("conversation-container").
		WithChild(memdom.NewNode("p").WithClass("query-text").WithText("question one")).
		WithChild(memdom.NewNode("div").WithClass("model-response-text").WithText("answer one")).
		WithChild(memdom.NewNode("p").WithClass("query-text").WithText("question two")).
		WithChild(memdom.NewNode("div").WithClass("model-response-text").WithText("answer two")))

	got := New(logger.Nop()).Extract(doc, flatRule, domain.PlatformGemini, "/app/xyz")

	require.Len(t, got, 4)
	require.Equal(t, []string{"question one", "answer one", "question two", "answer two"},
		[]string{got[0].Content, got[1].Content, got[2].Content, got[3].Content})
	require.Equal(t, domain.RoleUser, got[0].Role)
	require.Equal(t, domain.RoleAssistant, got[1].Role)
	require.Equal(t, domain.RoleUser, got[2].Role)
	require.Equal(t, domain.RoleAssistant, got[3].Role)
}

func TestExtractFlatUserOnly(t *testing.T) {
	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("div").WithClass("conversation-container").
		WithChild(memdom.NewNode("p").WithClass("query-text").WithText("lonely question")))

	got := New(logger.Nop()).Extract(doc, flatRule, domain.PlatformGemini, "/app/xyz")

	require.Len(t, got, 1)
	require.Equal(t, domain.RoleUser, got[0].Role)
}

func TestExtractAppliesFilters(t *testing.T) {
	rule := flatRule
	rule.Filter = domain.ContentFilter{
		MinLength:     2,
		MaxUserLength: 10,
		DenyKeywords:  []string{"let me think"},
	}

	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("div").WithClass("conversation-container").
		WithChild(memdom.NewNode("p").WithClass("query-text").WithText("x")).
		WithChild(memdom.NewNode("p").WithClass("query-text").WithText("this user text is far too long")).
		WithChild(memdom.NewNode("p").WithClass("query-text").WithText("short q")).
		WithChild(memdom.NewNode("div").WithClass("model-response-text").WithText("Let me think about that")).
		WithChild(memdom.NewNode("div").WithClass("model-response-text").WithText("a real answer")))

	got := New(logger.Nop()).Extract(doc, rule, domain.PlatformGemini, "/app/xyz")

	require.Len(t, got, 2)
	require.Equal(t, "short q", got[0].Content)
	require.Equal(t, "a real answer", got[1].Content)
}

func TestExtractEmptyPage(t *testing.T) {
	doc := memdom.NewDocument()

	got := New(logger.Nop()).Extract(doc, flatRule, domain.PlatformGemini, "/app/xyz")
	require.Empty(t, got)
}

func TestResolveContainer(t *testing.T) {
	doc := memdom.NewDocument()
	doc.Root().Append(memdom.NewNode("main").WithAttr("id", "main"))

	rule := domain.PlatformRule{Container: domain.Locator{"#missing", "main"}}
	require.NotNil(t, ResolveContainer(doc, rule))

	rule.Container = domain.Locator{"#missing"}
	require.Nil(t, ResolveContainer(doc, rule))
}
