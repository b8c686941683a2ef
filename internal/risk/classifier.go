package risk

import (
	"fmt"
	"sort"

	"github.com/zerobrew/zb-migrate/internal/depgraph"
)

const (
	safeReasonMessageConstant              = "No known problematic dependencies"
	directDependencyReasonTemplateConstant = "Depends on %d problematic package(s)"
	transitiveReasonTemplateConstant       = "Has transitive dependency on %d problematic package(s)"
)

// Tier grades how safely a package can leave the source manager.
type Tier string

// Risk tiers ordered from least to most constrained.
const (
	TierSafe  Tier = "SAFE"
	TierRisky Tier = "RISKY"
	TierKeep  Tier = "KEEP"
)

// Classification records the tier assigned to a package together with the
// reason and the problematic packages that forced the grade.
type Classification struct {
	Tier                 Tier
	Reason               string
	BlockingDependencies []string
}

// Classifier grades packages against the keep knowledge base and propagates
// risk through the dependency graph.
type Classifier struct {
	knowledgeBase *KnowledgeBase
}

// NewClassifier constructs a classifier over the provided knowledge base.
func NewClassifier(knowledgeBase *KnowledgeBase) *Classifier {
	return &Classifier{knowledgeBase: knowledgeBase}
}

// Classify grades every package in the supplied topological order. Because
// dependencies precede their dependents in the order, a single pass propagates
// risk across multi-hop dependency chains.
func (classifier *Classifier) Classify(orderedPackages []string, graph *depgraph.Graph) map[string]Classification {
	classifications := make(map[string]Classification, len(orderedPackages))

	for _, packageName := range orderedPackages {
		if keepReason, keepMatch := classifier.knowledgeBase.Lookup(packageName); keepMatch {
			classifications[packageName] = Classification{Tier: TierKeep, Reason: keepReason}
			continue
		}

		directBlocking := map[string]struct{}{}
		transitiveBlocking := map[string]struct{}{}
		for _, dependencyName := range graph.Dependencies(packageName) {
			dependencyClassification, dependencyClassified := classifications[dependencyName]
			if !dependencyClassified {
				continue
			}
			switch dependencyClassification.Tier {
			case TierKeep:
				directBlocking[dependencyName] = struct{}{}
			case TierRisky:
				for _, blockingName := range dependencyClassification.BlockingDependencies {
					transitiveBlocking[blockingName] = struct{}{}
				}
			}
		}

		if len(directBlocking) > 0 {
			blockingNames := sortedSetMembers(directBlocking)
			classifications[packageName] = Classification{
				Tier:                 TierRisky,
				Reason:               fmt.Sprintf(directDependencyReasonTemplateConstant, len(blockingNames)),
				BlockingDependencies: blockingNames,
			}
			continue
		}

		if len(transitiveBlocking) > 0 {
			blockingNames := sortedSetMembers(transitiveBlocking)
			classifications[packageName] = Classification{
				Tier:                 TierRisky,
				Reason:               fmt.Sprintf(transitiveReasonTemplateConstant, len(blockingNames)),
				BlockingDependencies: blockingNames,
			}
			continue
		}

		classifications[packageName] = Classification{Tier: TierSafe, Reason: safeReasonMessageConstant}
	}

	return classifications
}

func sortedSetMembers(memberSet map[string]struct{}) []string {
	memberNames := make([]string, 0, len(memberSet))
	for memberName := range memberSet {
		memberNames = append(memberNames, memberName)
	}
	sort.Strings(memberNames)
	return memberNames
}
