package rules

import (
	"testing"

	"github.com/threadly/threadly/internal/domain"
)

func TestNewRegistryHasDefaultsForAllPlatforms(t *testing.T) {
	reg := NewRegistry()

	platforms := []domain.Platform{
		domain.PlatformChatGPT,
		domain.PlatformClaude,
		domain.PlatformGemini,
		domain.PlatformGrok,
		domain.PlatformAIStudio,
		domain.PlatformPerplexity,
	}
	for _, p := range platforms {
		rule, ok := reg.RuleFor(p)
		if !ok {
			t.Fatalf("RuleFor(%q) missing built-in rule", p)
		}
		if rule.Container.Empty() {
			t.Errorf("RuleFor(%q) has no container locator", p)
		}
		if rule.User.Empty() {
			t.Errorf("RuleFor(%q) has no user locator", p)
		}
	}
}

func TestRuleForUnknownPlatform(t *testing.T) {
	reg := NewRegistry()

	if _, ok := reg.RuleFor(domain.PlatformUnknown); ok {
		t.Error("RuleFor(unknown) should have no rule")
	}
}

func TestApplyOverridesOnlyNamedPlatforms(t *testing.T) {
	reg := NewRegistry()

	override := domain.PlatformRule{
		Platform:  domain.PlatformGemini,
		Container: domain.Locator{".new-container"},
		User:      domain.Locator{".new-query"},
	}
	reg.Apply([]domain.PlatformRule{override})

	got, ok := reg.RuleFor(domain.PlatformGemini)
	if !ok {
		t.Fatal("RuleFor(gemini) missing after override")
	}
	if got.Container[0] != ".new-container" {
		t.Errorf("override not applied, container = %v", got.Container)
	}

	// Other platforms keep their defaults.
	claude, ok := reg.RuleFor(domain.PlatformClaude)
	if !ok || claude.User.Empty() {
		t.Error("unrelated platform lost its default rule")
	}
}
