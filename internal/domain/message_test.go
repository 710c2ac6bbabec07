package domain

import (
	"strings"
	"testing"
)

func TestIdentityKeySamePrefix(t *testing.T) {
	long := strings.Repeat("a", 150)
	m1 := &Message{Role: RoleUser, Content: long + "tail one"}
	m2 := &Message{Role: RoleUser, Content: long + "different tail"}

	if m1.IdentityKey() != m2.IdentityKey() {
		t.Error("messages sharing the first 100 characters should share an identity key")
	}
}

func TestIdentityKeyRoleDisambiguates(t *testing.T) {
	m1 := &Message{Role: RoleUser, Content: "Hello"}
	m2 := &Message{Role: RoleAssistant, Content: "Hello"}

	if m1.IdentityKey() == m2.IdentityKey() {
		t.Error("same content with different roles must not collide")
	}
}

func TestIdentityKeyShortContent(t *testing.T) {
	m1 := &Message{Role: RoleUser, Content: "Hello"}
	m2 := &Message{Role: RoleUser, Content: "Hello there"}

	if m1.IdentityKey() == m2.IdentityKey() {
		t.Error("short contents differing within the prefix must not collide")
	}
}

func TestIdentityKeyForCustomPrefix(t *testing.T) {
	k1 := IdentityKeyFor(RoleUser, "abcdef", 3)
	k2 := IdentityKeyFor(RoleUser, "abcxyz", 3)
	if k1 != k2 {
		t.Errorf("keys with prefix 3 should match: %q vs %q", k1, k2)
	}

	k3 := IdentityKeyFor(RoleUser, "abdxyz", 3)
	if k1 == k3 {
		t.Error("keys differing within prefix 3 should not match")
	}
}

func TestFingerprintUsesFullContent(t *testing.T) {
	long := strings.Repeat("a", 150)
	m1 := &Message{Role: RoleUser, Content: long + "tail one"}
	m2 := &Message{Role: RoleUser, Content: long + "different tail"}

	if m1.Fingerprint() == m2.Fingerprint() {
		t.Error("fingerprints are full-content keys and must not collide on prefix")
	}
}

func TestMessageMatches(t *testing.T) {
	m := &Message{Role: RoleUser, Content: "How do I write a Mutex in Go?"}

	cases := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"mutex", true},
		{"MUTEX IN GO", true},
		{"rust", false},
	}

	for _, c := range cases {
		if got := m.Matches(c.query); got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}

func TestContentFilterMinLength(t *testing.T) {
	f := ContentFilter{MinLength: 5}

	if f.Accept(RoleUser, "hey") {
		t.Error("text below MinLength should be rejected")
	}
	if !f.Accept(RoleUser, "hey there") {
		t.Error("text above MinLength should be accepted")
	}
}

func TestContentFilterMaxUserLength(t *testing.T) {
	f := ContentFilter{MaxUserLength: 10}

	if f.Accept(RoleUser, "this is definitely too long to be a prompt") {
		t.Error("user text above MaxUserLength should be rejected")
	}
	// Only user-role candidates are length-capped.
	if !f.Accept(RoleAssistant, "this is definitely too long to be a prompt") {
		t.Error("assistant text is not subject to MaxUserLength")
	}
}

func TestContentFilterDenyKeywords(t *testing.T) {
	f := ContentFilter{DenyKeywords: []string{"let me think"}}

	if f.Accept(RoleAssistant, "Hmm, Let Me Think about that for a second") {
		t.Error("assistant text containing a deny keyword should be rejected")
	}
	// Denylist applies to assistant candidates only.
	if !f.Accept(RoleUser, "let me think about what to ask") {
		t.Error("user text is not subject to the deny keyword list")
	}
	if !f.Accept(RoleAssistant, "The answer is 42.") {
		t.Error("clean assistant text should be accepted")
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Error("known roles should be valid")
	}
	if Role("system").Valid() {
		t.Error("unknown role should be invalid")
	}
}
