package dataset

// Kind identifies the operator that produced a Dataset.
type Kind int

const (
	KindSource Kind = iota
	KindMap
	KindFilter
	KindFlatMap
	KindDistinct
	KindSubtract
	KindJoin
	KindGroupByKey
	KindReduceByKey
	KindRepartition
)

var kindNames = map[Kind]string{
	KindSource:      "Source",
	KindMap:         "Map",
	KindFilter:      "Filter",
	KindFlatMap:     "FlatMap",
	KindDistinct:    "Distinct",
	KindSubtract:    "Subtract",
	KindJoin:        "Join",
	KindGroupByKey:  "GroupByKey",
	KindReduceByKey: "ReduceByKey",
	KindRepartition: "Repartition",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Shuffle reports whether the operator redistributes records across
// partitions, making it a barrier for its parents.
func (k Kind) Shuffle() bool {
	switch k {
	case KindDistinct, KindJoin, KindGroupByKey, KindReduceByKey, KindRepartition:
		return true
	default:
		return false
	}
}

// Operator describes one step of a Dataset's lineage.
type Operator struct {
	Kind Kind
	Name string
}

func (o Operator) String() string {
	if o.Name == "" || o.Name == o.Kind.String() {
		return o.Kind.String()
	}
	return o.Kind.String() + "(" + o.Name + ")"
}
