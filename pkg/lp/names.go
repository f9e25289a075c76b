package lp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/srand/solvelink/pkg/model"
)

const (
	ObjVarName      = "objvar"
	ObjConstantName = "objconstant"
)

var varNamePrefix = map[model.VarKind]string{
	model.Continuous:     "x",
	model.Binary:         "b",
	model.Integer:        "i",
	model.SemiContinuous: "sc",
	model.SemiInteger:    "si",
}

// Longest prefixes first so that "sc1" is not read as "s" + "c1".
var varNamePrefixes = []string{"sc", "si", "x", "b", "i"}

// VarName returns the name of variable idx: the kind prefix followed by the
// model index, or "objvar" for the objective variable.
func VarName(m *model.Model, idx int) string {
	if idx == m.ObjVar() {
		return ObjVarName
	}
	return varNamePrefix[m.Variables[idx].Kind] + strconv.Itoa(idx)
}

// RowName returns the name of constraint idx.
func RowName(idx int) string {
	return "e" + strconv.Itoa(idx)
}

// ParseVarName recovers the variable index from a name generated by
// VarName. The index is checked against the model's variable count.
func ParseVarName(m *model.Model, name string) (int, error) {
	if name == ObjVarName {
		if idx := m.ObjVar(); idx >= 0 {
			return idx, nil
		}
		return -1, fmt.Errorf("%q: model has no objective variable", name)
	}

	for _, prefix := range varNamePrefixes {
		suffix, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}

		idx, err := strconv.Atoi(suffix)
		if err != nil {
			return -1, fmt.Errorf("%q: bad index suffix: %w", name, err)
		}
		if idx < 0 || idx >= m.NumVars() {
			return -1, fmt.Errorf("%q: index %d out of range [0,%d)", name, idx, m.NumVars())
		}
		return idx, nil
	}

	return -1, fmt.Errorf("%q: unknown variable name prefix", name)
}
