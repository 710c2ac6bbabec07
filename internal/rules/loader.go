package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/threadly/threadly/internal/domain"
)

// Loader reads platform rule overrides from a YAML file. The file holds a
// list of PlatformRule entries; platforms it does not mention keep the
// built-in defaults.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the given rules file.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the rules file.
func (l *Loader) Load() ([]domain.PlatformRule, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []domain.PlatformRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}

	for i, rule := range rules {
		if err := validateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return rules, nil
}

// LoadInto loads the file and applies it to the registry.
func (l *Loader) LoadInto(reg *Registry) error {
	rules, err := l.Load()
	if err != nil {
		return err
	}
	reg.Apply(rules)
	return nil
}

func validateRule(rule domain.PlatformRule) error {
	if !rule.Platform.Known() {
		return fmt.Errorf("unknown platform %q", rule.Platform)
	}
	if rule.Container.Empty() {
		return fmt.Errorf("platform %s: container locator is required", rule.Platform)
	}
	if rule.User.Empty() {
		return fmt.Errorf("platform %s: user locator is required", rule.Platform)
	}
	return nil
}
