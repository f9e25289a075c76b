package solveengine

import (
	"fmt"

	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/lp"
	"github.com/srand/solvelink/pkg/model"
	"github.com/srand/solvelink/pkg/protocol"
)

// MappingError is returned when a result bundle does not match the model.
type MappingError struct {
	Expected int
	Got      int

	// Set if a variable was reported more than once.
	Duplicate string
}

func (e *MappingError) Error() string {
	if e.Duplicate != "" {
		return fmt.Sprintf("result has more than one value for variable %s", e.Duplicate)
	}
	return fmt.Sprintf("result has %d variable values, model has %d variables", e.Got, e.Expected)
}

// Status pair written back into the model.
type Status struct {
	Solve model.SolveStatus
	Model model.ModelStatus
}

var (
	statusCapability = Status{model.SolveStatusCapability, model.ModelStatusNoSolutionReturned}
	statusSetup      = Status{model.SolveStatusSetupError, model.ModelStatusNoSolutionReturned}
	statusSystem     = Status{model.SolveStatusSystemError, model.ModelStatusErrorNoSolution}
	statusResource   = Status{model.SolveStatusResource, model.ModelStatusNoSolutionReturned}
	statusUser       = Status{model.SolveStatusUser, model.ModelStatusNoSolutionReturned}
	statusFailed     = Status{model.SolveStatusSolverError, model.ModelStatusErrorNoSolution}
	statusUnknown    = Status{model.SolveStatusInternalError, model.ModelStatusErrorUnknown}
)

// Returns the status of a job that terminated without results.
func causeStatus(job *Job) Status {
	switch job.Cause {
	case CauseTimedOutRemote, CauseTimedOutLocal:
		return statusResource
	case CauseCancelledByUser:
		return statusUser
	case CauseFailed:
		return statusFailed
	case CauseErrorRemote:
		if job.Err != nil {
			return statusSystem
		}
	}
	return statusUnknown
}

// Returns the status for a result bundle.
func resultStatus(result *protocol.Result, discrete, hasValues bool) Status {
	feasible := model.ModelStatusFeasible
	if discrete {
		feasible = model.ModelStatusInteger
	}

	switch result.Status {
	case protocol.ResultOptimal:
		return Status{model.SolveStatusNormal, model.ModelStatusOptimal}
	case protocol.ResultFeasible:
		return Status{model.SolveStatusNormal, feasible}
	case protocol.ResultInfeasible:
		return Status{model.SolveStatusNormal, model.ModelStatusInfeasible}
	case protocol.ResultUnbounded:
		return Status{model.SolveStatusNormal, model.ModelStatusUnbounded}
	case protocol.ResultTimeout, protocol.ResultInterrupted:
		if hasValues {
			return Status{model.SolveStatusResource, feasible}
		}
		return statusResource
	case protocol.ResultFailed:
		return statusFailed
	}
	return statusUnknown
}

// Returns the variable values of a result bundle indexed like the model.
// Entries for the objective constant are ignored. Entries whose name
// cannot be mapped are logged and skipped. If the number of entries does
// not match the number of variables, or a variable is reported twice, a
// MappingError is returned.
func mapValues(m *model.Model, variables []protocol.VariableValue) ([]float64, error) {
	entries := make([]protocol.VariableValue, 0, len(variables))
	for _, v := range variables {
		if v.Name != lp.ObjConstantName {
			entries = append(entries, v)
		}
	}

	if len(entries) != m.NumVars() {
		return nil, &MappingError{Expected: m.NumVars(), Got: len(entries)}
	}

	values := make([]float64, m.NumVars())
	assigned := make([]bool, m.NumVars())

	for _, entry := range entries {
		idx, err := lp.ParseVarName(m, entry.Name)
		if err != nil {
			log.Warn("Ignoring result value:", err)
			continue
		}
		if assigned[idx] {
			return nil, &MappingError{Expected: m.NumVars(), Got: len(entries), Duplicate: entry.Name}
		}
		assigned[idx] = true
		values[idx] = entry.Value
	}

	return values, nil
}

// Returns true if the result status promises a value for every variable.
func requiresValues(status protocol.ResultStatus) bool {
	return status == protocol.ResultOptimal || status == protocol.ResultFeasible
}

// ApplyResult writes the result bundle into the model. Values are only
// written if the status implies a solution and the bundle has one value
// per variable. An optimal or feasible bundle without values is a
// MappingError. The returned status is also stored in the model.
func ApplyResult(m *model.Model, result *protocol.Result) (Status, error) {
	var values []float64
	var err error

	if len(result.Variables) > 0 || requiresValues(result.Status) {
		values, err = mapValues(m, result.Variables)
		if err != nil {
			log.Error("Failed to map result:", err)
		}
	}

	status := resultStatus(result, m.IsDiscrete(), values != nil)
	m.SetStatus(status.Solve, status.Model)

	if status.Model.HasSolution() {
		m.SetObjectiveValue(result.ObjectiveValue)
		if values != nil {
			if err := m.SetValues(values); err != nil {
				return status, err
			}
		}
	}

	return status, err
}
