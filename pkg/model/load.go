package model

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type termDoc struct {
	Var  int     `yaml:"var"`
	Coef float64 `yaml:"coef"`
}

type qtermDoc struct {
	Row  int     `yaml:"row"`
	Col  int     `yaml:"col"`
	Coef float64 `yaml:"coef"`
}

type variableDoc struct {
	Kind  string   `yaml:"kind"`
	Lower *float64 `yaml:"lower"`
	Upper *float64 `yaml:"upper"`
}

type constraintDoc struct {
	Kind      string     `yaml:"kind"`
	RHS       float64    `yaml:"rhs"`
	Linear    []termDoc  `yaml:"linear"`
	Quadratic []qtermDoc `yaml:"quadratic"`
	Nonlinear bool       `yaml:"nonlinear"`
}

type objectiveDoc struct {
	Sense     string     `yaml:"sense"`
	Variable  *int       `yaml:"variable"`
	Linear    []termDoc  `yaml:"linear"`
	Quadratic []qtermDoc `yaml:"quadratic"`
	Constant  float64    `yaml:"constant"`
	Nonlinear bool       `yaml:"nonlinear"`
}

type sosMemberDoc struct {
	Var    int     `yaml:"var"`
	Weight float64 `yaml:"weight"`
}

type sosDoc struct {
	Type    int            `yaml:"type"`
	Members []sosMemberDoc `yaml:"members"`
}

type modelDoc struct {
	Name        string          `yaml:"name"`
	Variables   []variableDoc   `yaml:"variables"`
	Constraints []constraintDoc `yaml:"constraints"`
	Objective   objectiveDoc    `yaml:"objective"`
	SOS         []sosDoc        `yaml:"sos"`
}

func parseVarKind(s string) (VarKind, error) {
	switch strings.ToLower(s) {
	case "", "continuous", "x":
		return Continuous, nil
	case "binary", "b":
		return Binary, nil
	case "integer", "i":
		return Integer, nil
	case "semicontinuous", "sc":
		return SemiContinuous, nil
	case "semiinteger", "si":
		return SemiInteger, nil
	}
	return Continuous, fmt.Errorf("unknown variable kind %q", s)
}

func parseRowKind(s string) (RowKind, error) {
	switch strings.ToLower(s) {
	case "=", "==", "eq", "e":
		return Equal, nil
	case "<=", "le", "l":
		return Less, nil
	case ">=", "ge", "g":
		return Greater, nil
	case "conic", "c":
		return Conic, nil
	}
	return Equal, fmt.Errorf("unknown constraint kind %q", s)
}

func parseSense(s string) (Sense, error) {
	switch strings.ToLower(s) {
	case "", "min", "minimize":
		return Minimize, nil
	case "max", "maximize":
		return Maximize, nil
	}
	return Minimize, fmt.Errorf("unknown objective sense %q", s)
}

func terms(docs []termDoc) []Term {
	if len(docs) == 0 {
		return nil
	}
	out := make([]Term, len(docs))
	for i, d := range docs {
		out[i] = Term{Var: d.Var, Coef: d.Coef}
	}
	return out
}

func qterms(docs []qtermDoc) []QTerm {
	if len(docs) == 0 {
		return nil
	}
	out := make([]QTerm, len(docs))
	for i, d := range docs {
		out[i] = QTerm{Row: d.Row, Col: d.Col, Coef: d.Coef}
	}
	return out
}

// Load reads a YAML model document. Infinite bounds are written as .inf
// and -.inf. Omitted bounds take the defaults of the variable kind.
func Load(r io.Reader) (*Model, error) {
	var doc modelDoc

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}

	sense, err := parseSense(doc.Objective.Sense)
	if err != nil {
		return nil, err
	}

	m := New(doc.Name, sense)

	for i, v := range doc.Variables {
		kind, err := parseVarKind(v.Kind)
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", i, err)
		}

		lower, upper := 0.0, Inf
		if kind == Binary {
			upper = 1
		}
		if v.Lower != nil {
			lower = *v.Lower
		}
		if v.Upper != nil {
			upper = *v.Upper
		}
		m.AddVariable(kind, lower, upper)
	}

	for i, c := range doc.Constraints {
		kind, err := parseRowKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		idx := m.AddConstraint(kind, c.RHS, terms(c.Linear), qterms(c.Quadratic))
		m.Constraints[idx].Nonlinear = c.Nonlinear
	}

	if doc.Objective.Variable != nil {
		m.Objective.Style = ObjectiveVariable
		m.Objective.Var = *doc.Objective.Variable
	}
	m.Objective.Linear = terms(doc.Objective.Linear)
	m.Objective.Quadratic = qterms(doc.Objective.Quadratic)
	m.Objective.Constant = doc.Objective.Constant
	m.Objective.Nonlinear = doc.Objective.Nonlinear

	for _, s := range doc.SOS {
		members := make([]SOSMember, len(s.Members))
		for j, member := range s.Members {
			members[j] = SOSMember{Var: member.Var, Weight: member.Weight}
		}
		m.AddSOS(s.Type, members)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// LoadFile reads a YAML model document from the filesystem.
func LoadFile(fs afero.Fs, path string) (*Model, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
