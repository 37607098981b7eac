package triage

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrRulesNotFound is returned when the rules file does not exist.
var ErrRulesNotFound = errors.New("triage rules file not found")

// Rules holds the tunable parts of triage that differ between locales.
type Rules struct {
	ToleratedMessages []string `yaml:"tolerated_messages"`
}

func DefaultRules() Rules {
	return Rules{ToleratedMessages: []string{DefaultToleratedMessage}}
}

// LoadRules reads a YAML rules file. An empty path yields the defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		if os.IsNotExist(err) {
			return Rules{}, fmt.Errorf("%w: %s", ErrRulesNotFound, path)
		}
		return Rules{}, fmt.Errorf("reading triage rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parsing triage rules: %w", err)
	}
	if rules.ToleratedMessages == nil {
		rules.ToleratedMessages = DefaultRules().ToleratedMessages
	}
	return rules, nil
}
