package monitoring

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PlanNode represents a single operator in a dataset lineage.
type PlanNode struct {
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Dataset   string     `json:"dataset"`
	Persisted bool       `json:"persisted,omitempty"`
	Cached    bool       `json:"cached,omitempty"`
	Shuffle   bool       `json:"shuffle,omitempty"`
	Children  []PlanNode `json:"children,omitempty"`
}

// ToJSON converts the plan to indented JSON.
func (n *PlanNode) ToJSON() ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}

// FromJSON loads a plan from JSON data.
func (n *PlanNode) FromJSON(data []byte) error {
	return json.Unmarshal(data, n)
}

// OperationCount returns the number of operators in the plan, this node included.
func (n *PlanNode) OperationCount() int {
	count := 1
	for i := range n.Children {
		count += n.Children[i].OperationCount()
	}
	return count
}

// ShuffleCount returns the number of shuffle barriers in the plan.
func (n *PlanNode) ShuffleCount() int {
	count := 0
	if n.Shuffle {
		count = 1
	}
	for i := range n.Children {
		count += n.Children[i].ShuffleCount()
	}
	return count
}

// String renders the plan as an indented tree, the action's input first.
func (n *PlanNode) String() string {
	var sb strings.Builder
	n.render(&sb, 0)
	return sb.String()
}

func (n *PlanNode) render(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind)
	if n.Name != "" && n.Name != n.Kind {
		sb.WriteString(" [" + n.Name + "]")
	}
	if n.Shuffle {
		sb.WriteString(" (shuffle)")
	}
	if n.Persisted {
		sb.WriteString(" (persisted)")
	}
	if n.Cached {
		sb.WriteString(" (cached)")
	}
	sb.WriteString("\n")
	for i := range n.Children {
		n.Children[i].render(sb, depth+1)
	}
}
