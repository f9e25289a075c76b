package model

import "fmt"

// Solution written back into the model after a solve.
type Solution struct {
	SolveStatus SolveStatus
	ModelStatus ModelStatus
	Objective   float64

	// Primal values, one per variable. Only valid if HasValues is set.
	Values    []float64
	HasValues bool
}

func (m *Model) SetStatus(solve SolveStatus, model ModelStatus) {
	m.Solution.SolveStatus = solve
	m.Solution.ModelStatus = model
}

func (m *Model) SetObjectiveValue(value float64) {
	m.Solution.Objective = value
}

// Stores primal values for all variables.
func (m *Model) SetValues(values []float64) error {
	if len(values) != len(m.Variables) {
		return fmt.Errorf("expected %d values, got %d", len(m.Variables), len(values))
	}

	m.Solution.Values = append([]float64(nil), values...)
	m.Solution.HasValues = true
	return nil
}

// Returns the value of a variable, or false if no values are available.
func (m *Model) Value(idx int) (float64, bool) {
	if !m.Solution.HasValues || idx < 0 || idx >= len(m.Solution.Values) {
		return 0, false
	}
	return m.Solution.Values[idx], true
}
