//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() PlanNode {
	return PlanNode{
		Kind: "Join", Name: "Join", Dataset: "j", Shuffle: true,
		Children: []PlanNode{
			{Kind: "Map", Name: "keyed", Dataset: "m", Persisted: true, Children: []PlanNode{
				{Kind: "Source", Name: "text", Dataset: "s"},
			}},
			{Kind: "Source", Name: "parallelize", Dataset: "p"},
		},
	}
}

func TestPlanNode(t *testing.T) {
	plan := samplePlan()

	t.Run("counts", func(t *testing.T) {
		assert.Equal(t, 4, plan.OperationCount())
		assert.Equal(t, 1, plan.ShuffleCount())
	})

	t.Run("render", func(t *testing.T) {
		expected := "Join (shuffle)\n" +
			"  Map [keyed] (persisted)\n" +
			"    Source [text]\n" +
			"  Source [parallelize]\n"
		assert.Equal(t, expected, plan.String())
	})

	t.Run("json round trip", func(t *testing.T) {
		data, err := plan.ToJSON()
		require.NoError(t, err)

		var decoded PlanNode
		require.NoError(t, decoded.FromJSON(data))
		assert.Equal(t, plan, decoded)
	})
}
