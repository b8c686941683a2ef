package risk

import "strings"

const (
	fallbackKeepReasonMessageConstant = "Known to cause migration issues"
)

// KeepRule marks a package family that should remain with the source manager.
// Exactly one of Name or Prefix selects the packages the rule applies to.
type KeepRule struct {
	Name   string `mapstructure:"name" yaml:"name,omitempty"`
	Prefix string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Reason string `mapstructure:"reason" yaml:"reason"`
}

func (rule KeepRule) sanitized() KeepRule {
	sanitizedRule := KeepRule{
		Name:   strings.TrimSpace(rule.Name),
		Prefix: strings.TrimSpace(rule.Prefix),
		Reason: strings.TrimSpace(rule.Reason),
	}
	if len(sanitizedRule.Reason) == 0 {
		sanitizedRule.Reason = fallbackKeepReasonMessageConstant
	}
	return sanitizedRule
}

func (rule KeepRule) valid() bool {
	hasName := len(rule.Name) > 0
	hasPrefix := len(rule.Prefix) > 0
	return hasName != hasPrefix
}

// Configuration carries user supplied keep rules layered over the embedded table.
type Configuration struct {
	Keep []KeepRule `mapstructure:"keep"`
}

// DefaultConfiguration returns a configuration with no additional keep rules.
func DefaultConfiguration() Configuration {
	return Configuration{}
}

// BuildKnowledgeBase combines the embedded rule table with configured rules.
func (configuration Configuration) BuildKnowledgeBase() (*KnowledgeBase, error) {
	knowledgeBase, knowledgeBaseError := DefaultKnowledgeBase()
	if knowledgeBaseError != nil {
		return nil, knowledgeBaseError
	}
	knowledgeBase.AddRules(configuration.Keep)
	return knowledgeBase, nil
}
