package depgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zerobrew/zb-migrate/internal/depgraph"
	"github.com/zerobrew/zb-migrate/internal/inventory"
)

const (
	testLinearChainCaseNameConstant       = "linear_chain"
	testSharedDependencyCaseNameConstant  = "shared_dependency_lexicographic"
	testIndependentCaseNameConstant       = "independent_packages"
	testMissingDependencyCaseNameConstant = "dependency_outside_inventory"
	testDiamondCaseNameConstant           = "diamond"
)

func packageRecord(packageName string, dependencyNames ...string) inventory.PackageRecord {
	return inventory.PackageRecord{Name: packageName, Version: "1.0", Dependencies: dependencyNames}
}

func TestTopologicalOrderDeterminism(testInstance *testing.T) {
	testCases := []struct {
		name          string
		records       []inventory.PackageRecord
		expectedOrder []string
	}{
		{
			name: testLinearChainCaseNameConstant,
			records: []inventory.PackageRecord{
				packageRecord("curl", "openssl"),
				packageRecord("openssl", "ca-certificates"),
				packageRecord("ca-certificates"),
			},
			expectedOrder: []string{"ca-certificates", "openssl", "curl"},
		},
		{
			name: testSharedDependencyCaseNameConstant,
			records: []inventory.PackageRecord{
				packageRecord("c", "a"),
				packageRecord("b", "a"),
				packageRecord("a"),
			},
			expectedOrder: []string{"a", "b", "c"},
		},
		{
			name: testIndependentCaseNameConstant,
			records: []inventory.PackageRecord{
				packageRecord("zsh"),
				packageRecord("bat"),
				packageRecord("fzf"),
			},
			expectedOrder: []string{"bat", "fzf", "zsh"},
		},
		{
			name: testMissingDependencyCaseNameConstant,
			records: []inventory.PackageRecord{
				packageRecord("wget", "libidn2", "not-installed"),
				packageRecord("libidn2"),
			},
			expectedOrder: []string{"libidn2", "wget"},
		},
		{
			name: testDiamondCaseNameConstant,
			records: []inventory.PackageRecord{
				packageRecord("top", "left", "right"),
				packageRecord("left", "base"),
				packageRecord("right", "base"),
				packageRecord("base"),
			},
			expectedOrder: []string{"base", "left", "right", "top"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			graph := depgraph.Build(testCase.records)
			orderedPackages, orderingError := graph.TopologicalOrder()
			require.NoError(testInstance, orderingError)
			require.Equal(testInstance, testCase.expectedOrder, orderedPackages)
		})
	}
}

func TestTopologicalOrderRepeatedRunsMatch(testInstance *testing.T) {
	records := []inventory.PackageRecord{
		packageRecord("git", "gettext", "pcre2"),
		packageRecord("gettext"),
		packageRecord("pcre2"),
		packageRecord("node", "icu4c"),
		packageRecord("icu4c"),
	}

	graph := depgraph.Build(records)
	firstOrder, firstError := graph.TopologicalOrder()
	require.NoError(testInstance, firstError)

	for repetition := 0; repetition < 10; repetition++ {
		repeatedOrder, repeatedError := depgraph.Build(records).TopologicalOrder()
		require.NoError(testInstance, repeatedError)
		require.Equal(testInstance, firstOrder, repeatedOrder)
	}
}

func TestTopologicalOrderReportsCycle(testInstance *testing.T) {
	records := []inventory.PackageRecord{
		packageRecord("p", "q"),
		packageRecord("q", "p"),
		packageRecord("standalone"),
	}

	graph := depgraph.Build(records)
	_, orderingError := graph.TopologicalOrder()
	require.Error(testInstance, orderingError)

	cycleError := &depgraph.CycleError{}
	require.ErrorAs(testInstance, orderingError, &cycleError)
	require.Equal(testInstance, []string{"p", "q"}, cycleError.Members)
	require.Contains(testInstance, cycleError.Error(), "p")
	require.Contains(testInstance, cycleError.Error(), "q")
}

func TestTopologicalOrderCycleWithDownstreamDependent(testInstance *testing.T) {
	records := []inventory.PackageRecord{
		packageRecord("p", "q"),
		packageRecord("q", "p"),
		packageRecord("consumer", "p"),
	}

	graph := depgraph.Build(records)
	_, orderingError := graph.TopologicalOrder()
	require.Error(testInstance, orderingError)

	cycleError := &depgraph.CycleError{}
	require.ErrorAs(testInstance, orderingError, &cycleError)
	require.Equal(testInstance, []string{"p", "q"}, cycleError.Members)
}

func TestGraphAdjacencyAccessors(testInstance *testing.T) {
	records := []inventory.PackageRecord{
		packageRecord("curl", "openssl", "openssl"),
		packageRecord("openssl"),
	}

	graph := depgraph.Build(records)
	require.Equal(testInstance, 2, graph.Size())
	require.True(testInstance, graph.Contains("curl"))
	require.False(testInstance, graph.Contains("wget"))
	require.Equal(testInstance, []string{"openssl"}, graph.Dependencies("curl"))
	require.Equal(testInstance, []string{"curl"}, graph.Dependents("openssl"))
	require.Empty(testInstance, graph.Dependencies("openssl"))
}
