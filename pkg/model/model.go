// Package model holds the in-memory optimization model which is serialized
// for the remote service and receives the solution afterwards.
package model

import (
	"fmt"
	"math"
)

// Kind of a variable.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
	Integer
	SemiContinuous
	SemiInteger
)

func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	case SemiContinuous:
		return "semicontinuous"
	case SemiInteger:
		return "semiinteger"
	}
	return fmt.Sprintf("VarKind(%d)", int(k))
}

// Returns true if the variable takes integral values.
func (k VarKind) IsDiscrete() bool {
	return k == Binary || k == Integer || k == SemiInteger
}

// Relational kind of a constraint.
type RowKind int

const (
	Equal RowKind = iota
	Less
	Greater
	Conic
)

func (k RowKind) String() string {
	switch k {
	case Equal:
		return "="
	case Less:
		return "<="
	case Greater:
		return ">="
	case Conic:
		return "conic"
	}
	return fmt.Sprintf("RowKind(%d)", int(k))
}

type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

type ObjectiveStyle int

const (
	// The objective is an explicit linear and quadratic expression.
	ObjectiveExpression ObjectiveStyle = iota
	// A designated free variable equals the objective.
	ObjectiveVariable
)

var (
	Inf    = math.Inf(1)
	NegInf = math.Inf(-1)
)

type Variable struct {
	Kind  VarKind
	Lower float64
	Upper float64
}

// Linear coefficient of a variable.
type Term struct {
	Var  int
	Coef float64
}

// Quadratic coefficient of a variable pair.
// A diagonal entry (Row == Col) is stored at twice its mathematical
// coefficient. An off-diagonal pair is stored once.
type QTerm struct {
	Row  int
	Col  int
	Coef float64
}

func (q QTerm) IsDiagonal() bool {
	return q.Row == q.Col
}

type Constraint struct {
	Kind      RowKind
	RHS       float64
	Linear    []Term
	Quadratic []QTerm

	// Set when the row has general nonlinear terms.
	Nonlinear bool
}

type Objective struct {
	Sense Sense
	Style ObjectiveStyle

	// Objective variable, only used with ObjectiveVariable.
	Var int

	Linear    []Term
	Quadratic []QTerm
	Constant  float64

	// Set when the objective has general nonlinear terms.
	Nonlinear bool
}

type SOSMember struct {
	Var    int
	Weight float64
}

// A special ordered set of type 1 or 2.
type SOS struct {
	Type    int
	Members []SOSMember
}

type Model struct {
	Name        string
	Variables   []Variable
	Constraints []Constraint
	Objective   Objective
	SOS         []SOS

	// Written back after a solve.
	Solution Solution
}

// Create an empty model.
func New(name string, sense Sense) *Model {
	return &Model{
		Name:      name,
		Objective: Objective{Sense: sense},
	}
}

// Adds a variable and returns its index.
func (m *Model) AddVariable(kind VarKind, lower, upper float64) int {
	m.Variables = append(m.Variables, Variable{Kind: kind, Lower: lower, Upper: upper})
	return len(m.Variables) - 1
}

// Adds a constraint and returns its index.
func (m *Model) AddConstraint(kind RowKind, rhs float64, linear []Term, quadratic []QTerm) int {
	m.Constraints = append(m.Constraints, Constraint{
		Kind:      kind,
		RHS:       rhs,
		Linear:    linear,
		Quadratic: quadratic,
	})
	return len(m.Constraints) - 1
}

func (m *Model) AddSOS(sosType int, members []SOSMember) {
	m.SOS = append(m.SOS, SOS{Type: sosType, Members: members})
}

func (m *Model) NumVars() int {
	return len(m.Variables)
}

func (m *Model) NumRows() int {
	return len(m.Constraints)
}

// Returns the index of the objective variable, or -1 if the objective is
// an explicit expression.
func (m *Model) ObjVar() int {
	if m.Objective.Style == ObjectiveVariable {
		return m.Objective.Var
	}
	return -1
}

func (m *Model) KindCount(kind VarKind) int {
	count := 0
	for _, v := range m.Variables {
		if v.Kind == kind {
			count++
		}
	}
	return count
}

func (m *Model) RowKindCount(kind RowKind) int {
	count := 0
	for _, c := range m.Constraints {
		if c.Kind == kind {
			count++
		}
	}
	return count
}

// Returns the number of linear and quadratic nonzeros in rows and objective.
func (m *Model) NonzeroCount() (linear, quadratic int) {
	for _, c := range m.Constraints {
		linear += len(c.Linear)
		quadratic += len(c.Quadratic)
	}

	if m.Objective.Style == ObjectiveVariable {
		linear++
	} else {
		linear += len(m.Objective.Linear)
		quadratic += len(m.Objective.Quadratic)
	}
	return linear, quadratic
}

// Returns true if any variable takes integral values or any SOS set exists.
func (m *Model) IsDiscrete() bool {
	if len(m.SOS) > 0 {
		return true
	}
	for _, v := range m.Variables {
		if v.Kind.IsDiscrete() {
			return true
		}
	}
	return false
}

// Returns true if the model has general nonlinear terms.
func (m *Model) HasNonlinear() bool {
	if m.Objective.Style == ObjectiveExpression && m.Objective.Nonlinear {
		return true
	}
	for _, c := range m.Constraints {
		if c.Nonlinear {
			return true
		}
	}
	return false
}

// Checks that all indices refer to existing variables and that the
// numeric data is usable.
func (m *Model) Validate() error {
	n := len(m.Variables)

	checkVar := func(where string, idx int) error {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%s: variable index %d out of range [0,%d)", where, idx, n)
		}
		return nil
	}

	for i, v := range m.Variables {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return fmt.Errorf("variable %d: bound is NaN", i)
		}
		if v.Lower > v.Upper {
			return fmt.Errorf("variable %d: lower bound %g exceeds upper bound %g", i, v.Lower, v.Upper)
		}
	}

	for i, c := range m.Constraints {
		where := fmt.Sprintf("constraint %d", i)
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("%s: right-hand side must be finite", where)
		}
		for _, t := range c.Linear {
			if err := checkVar(where, t.Var); err != nil {
				return err
			}
		}
		for _, q := range c.Quadratic {
			if err := checkVar(where, q.Row); err != nil {
				return err
			}
			if err := checkVar(where, q.Col); err != nil {
				return err
			}
		}
	}

	obj := &m.Objective
	switch obj.Style {
	case ObjectiveVariable:
		if err := checkVar("objective", obj.Var); err != nil {
			return err
		}
	case ObjectiveExpression:
		for _, t := range obj.Linear {
			if err := checkVar("objective", t.Var); err != nil {
				return err
			}
		}
		for _, q := range obj.Quadratic {
			if err := checkVar("objective", q.Row); err != nil {
				return err
			}
			if err := checkVar("objective", q.Col); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("objective: unknown style %d", obj.Style)
	}

	for i, s := range m.SOS {
		where := fmt.Sprintf("sos %d", i)
		if s.Type != 1 && s.Type != 2 {
			return fmt.Errorf("%s: unsupported type %d", where, s.Type)
		}
		for _, member := range s.Members {
			if err := checkVar(where, member.Var); err != nil {
				return err
			}
		}
	}

	return nil
}
