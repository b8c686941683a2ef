package risk

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultRulesParseErrorTemplateConstant = "failed to parse embedded keep rules: %w"
)

//go:embed default_rules.yaml
var embeddedDefaultRulesContent []byte

type keepRuleDocument struct {
	Keep []KeepRule `yaml:"keep"`
}

// KnowledgeBase answers whether a package is known to resist migration and why.
type KnowledgeBase struct {
	exactReasons map[string]string
	prefixRules  []KeepRule
}

// NewKnowledgeBase indexes the provided keep rules for lookup.
func NewKnowledgeBase(rules []KeepRule) *KnowledgeBase {
	knowledgeBase := &KnowledgeBase{exactReasons: map[string]string{}}
	knowledgeBase.AddRules(rules)
	return knowledgeBase
}

// DefaultKnowledgeBase builds a knowledge base from the embedded rule table.
func DefaultKnowledgeBase() (*KnowledgeBase, error) {
	ruleDocument := keepRuleDocument{}
	if parseError := yaml.Unmarshal(embeddedDefaultRulesContent, &ruleDocument); parseError != nil {
		return nil, fmt.Errorf(defaultRulesParseErrorTemplateConstant, parseError)
	}
	return NewKnowledgeBase(ruleDocument.Keep), nil
}

// DefaultKeepRules exposes the embedded rule table for inspection and tests.
func DefaultKeepRules() ([]KeepRule, error) {
	ruleDocument := keepRuleDocument{}
	if parseError := yaml.Unmarshal(embeddedDefaultRulesContent, &ruleDocument); parseError != nil {
		return nil, fmt.Errorf(defaultRulesParseErrorTemplateConstant, parseError)
	}
	return ruleDocument.Keep, nil
}

// AddRules registers additional keep rules. Later exact rules override earlier
// ones for the same package name.
func (knowledgeBase *KnowledgeBase) AddRules(rules []KeepRule) {
	for _, rule := range rules {
		sanitizedRule := rule.sanitized()
		if !sanitizedRule.valid() {
			continue
		}
		if len(sanitizedRule.Name) > 0 {
			knowledgeBase.exactReasons[sanitizedRule.Name] = sanitizedRule.Reason
			continue
		}
		knowledgeBase.prefixRules = append(knowledgeBase.prefixRules, sanitizedRule)
	}

	// Longer prefixes win over shorter ones when both match.
	sort.SliceStable(knowledgeBase.prefixRules, func(firstIndex int, secondIndex int) bool {
		return len(knowledgeBase.prefixRules[firstIndex].Prefix) > len(knowledgeBase.prefixRules[secondIndex].Prefix)
	})
}

// Lookup reports the keep reason for the named package when a rule matches.
func (knowledgeBase *KnowledgeBase) Lookup(packageName string) (string, bool) {
	if reason, exactMatch := knowledgeBase.exactReasons[packageName]; exactMatch {
		return reason, true
	}
	for _, prefixRule := range knowledgeBase.prefixRules {
		if strings.HasPrefix(packageName, prefixRule.Prefix) {
			return prefixRule.Reason, true
		}
	}
	return "", false
}
