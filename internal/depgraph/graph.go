package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zerobrew/zb-migrate/internal/inventory"
)

const (
	cycleErrorTemplateConstant        = "dependency cycle detected involving: %s"
	cycleMembersJoinSeparatorConstant = ", "
)

// CycleError reports that the installed packages contain a dependency cycle.
type CycleError struct {
	Members []string
}

// Error names the packages participating in the detected cycle.
func (cycleError *CycleError) Error() string {
	return fmt.Sprintf(cycleErrorTemplateConstant, strings.Join(cycleError.Members, cycleMembersJoinSeparatorConstant))
}

// Graph stores directed dependency relationships between installed packages.
// An edge runs from a package to each package it depends on.
type Graph struct {
	nodes        map[string]struct{}
	dependencies map[string][]string
	dependents   map[string][]string
}

// Build constructs a graph from installed package records. Dependencies that
// are not themselves part of the inventory are ignored because the source
// manager continues to provide them.
func Build(records []inventory.PackageRecord) *Graph {
	graph := &Graph{
		nodes:        map[string]struct{}{},
		dependencies: map[string][]string{},
		dependents:   map[string][]string{},
	}

	for _, record := range records {
		graph.nodes[record.Name] = struct{}{}
	}

	for _, record := range records {
		seenDependencies := map[string]struct{}{}
		for _, dependencyName := range record.Dependencies {
			if dependencyName == record.Name {
				continue
			}
			if _, dependencyInstalled := graph.nodes[dependencyName]; !dependencyInstalled {
				continue
			}
			if _, alreadySeen := seenDependencies[dependencyName]; alreadySeen {
				continue
			}
			seenDependencies[dependencyName] = struct{}{}
			graph.dependencies[record.Name] = append(graph.dependencies[record.Name], dependencyName)
			graph.dependents[dependencyName] = append(graph.dependents[dependencyName], record.Name)
		}
	}

	for packageName := range graph.dependencies {
		sort.Strings(graph.dependencies[packageName])
	}
	for packageName := range graph.dependents {
		sort.Strings(graph.dependents[packageName])
	}

	return graph
}

// Contains reports whether the named package is part of the graph.
func (graph *Graph) Contains(packageName string) bool {
	_, nodePresent := graph.nodes[packageName]
	return nodePresent
}

// Dependencies returns the in-inventory dependencies of the named package in
// lexicographic order.
func (graph *Graph) Dependencies(packageName string) []string {
	return append([]string{}, graph.dependencies[packageName]...)
}

// Dependents returns the in-inventory dependents of the named package in
// lexicographic order.
func (graph *Graph) Dependents(packageName string) []string {
	return append([]string{}, graph.dependents[packageName]...)
}

// Size returns the number of packages in the graph.
func (graph *Graph) Size() int {
	return len(graph.nodes)
}

// TopologicalOrder returns every package ordered so that dependencies precede
// their dependents. Packages that become available at the same time are
// emitted in lexicographic order, so the result is deterministic for a given
// inventory. A *CycleError is returned when no complete ordering exists.
func (graph *Graph) TopologicalOrder() ([]string, error) {
	remainingDependencyCounts := map[string]int{}
	availablePackages := []string{}
	for packageName := range graph.nodes {
		dependencyCount := len(graph.dependencies[packageName])
		remainingDependencyCounts[packageName] = dependencyCount
		if dependencyCount == 0 {
			availablePackages = append(availablePackages, packageName)
		}
	}

	orderedPackages := make([]string, 0, len(graph.nodes))
	for len(availablePackages) > 0 {
		sort.Strings(availablePackages)
		nextPackage := availablePackages[0]
		availablePackages = availablePackages[1:]
		orderedPackages = append(orderedPackages, nextPackage)

		for _, dependentName := range graph.dependents[nextPackage] {
			remainingDependencyCounts[dependentName]--
			if remainingDependencyCounts[dependentName] == 0 {
				availablePackages = append(availablePackages, dependentName)
			}
		}
	}

	if len(orderedPackages) != len(graph.nodes) {
		return nil, &CycleError{Members: graph.cycleMembers(orderedPackages)}
	}

	return orderedPackages, nil
}

// cycleMembers isolates the packages participating in cycles by pruning
// unordered packages that merely depend on a cycle without closing one.
func (graph *Graph) cycleMembers(orderedPackages []string) []string {
	remainingPackages := map[string]struct{}{}
	for packageName := range graph.nodes {
		remainingPackages[packageName] = struct{}{}
	}
	for _, orderedName := range orderedPackages {
		delete(remainingPackages, orderedName)
	}

	pruned := true
	for pruned {
		pruned = false
		for packageName := range remainingPackages {
			dependentInRemaining := false
			for _, dependentName := range graph.dependents[packageName] {
				if _, stillRemaining := remainingPackages[dependentName]; stillRemaining {
					dependentInRemaining = true
					break
				}
			}
			if !dependentInRemaining {
				delete(remainingPackages, packageName)
				pruned = true
			}
		}
	}

	memberNames := make([]string, 0, len(remainingPackages))
	for packageName := range remainingPackages {
		memberNames = append(memberNames, packageName)
	}
	sort.Strings(memberNames)
	return memberNames
}
