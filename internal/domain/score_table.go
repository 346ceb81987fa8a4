package domain

// DefaultScore is the weight of any construct not listed in a ScoreTable.
const DefaultScore = 1.0

// ScoreTable maps construct names to weights. It is read-only once built.
type ScoreTable struct {
	weights map[string]float64
}

var defaultWeights = map[string]float64{
	"define_method": 5,
	"eval":          5,
	"module_eval":   5,
	"class_eval":    5,
	"instance_eval": 5,

	"alias_method":               2,
	"include":                    2,
	"extend":                     2,
	"instance_method":            2,
	"instance_methods":           2,
	"method_added":               2,
	"method_defined?":            2,
	"method_removed":             2,
	"method_undefined":           2,
	"private_class_method":       2,
	"private_instance_methods":   2,
	"private_method_defined?":    2,
	"protected_instance_methods": 2,
	"protected_method_defined?":  2,
	"public_class_method":        2,
	"public_instance_methods":    2,
	"public_method_defined?":     2,
	"remove_method":              2,
	"undef_method":               2,
}

// NewScoreTable copies weights into a new table.
func NewScoreTable(weights map[string]float64) ScoreTable {
	copied := make(map[string]float64, len(weights))
	for name, weight := range weights {
		copied[name] = weight
	}

	return ScoreTable{weights: copied}
}

// DefaultScoreTable weighs metaprogramming primitives at 5 and reflection or
// visibility primitives at 2.
func DefaultScoreTable() ScoreTable {
	return NewScoreTable(defaultWeights)
}

// Score returns the weight of name, or DefaultScore when it is not listed.
func (t ScoreTable) Score(name string) float64 {
	if weight, ok := t.weights[name]; ok {
		return weight
	}

	return DefaultScore
}
