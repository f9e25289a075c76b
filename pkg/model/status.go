package model

import "fmt"

// Solver termination status as understood by the host.
type SolveStatus int

const (
	SolveStatusNone          SolveStatus = 0
	SolveStatusNormal        SolveStatus = 1
	SolveStatusIteration     SolveStatus = 2
	SolveStatusResource      SolveStatus = 3
	SolveStatusSolver        SolveStatus = 4
	SolveStatusEvalError     SolveStatus = 5
	SolveStatusCapability    SolveStatus = 6
	SolveStatusLicense       SolveStatus = 7
	SolveStatusUser          SolveStatus = 8
	SolveStatusSetupError    SolveStatus = 9
	SolveStatusSolverError   SolveStatus = 10
	SolveStatusInternalError SolveStatus = 11
	SolveStatusSkipped       SolveStatus = 12
	SolveStatusSystemError   SolveStatus = 13
)

var solveStatusNames = map[SolveStatus]string{
	SolveStatusNone:          "none",
	SolveStatusNormal:        "normal completion",
	SolveStatusIteration:     "iteration interrupt",
	SolveStatusResource:      "resource interrupt",
	SolveStatusSolver:        "terminated by solver",
	SolveStatusEvalError:     "evaluation interrupt",
	SolveStatusCapability:    "capability problems",
	SolveStatusLicense:       "licensing problems",
	SolveStatusUser:          "user interrupt",
	SolveStatusSetupError:    "setup failure",
	SolveStatusSolverError:   "solver failure",
	SolveStatusInternalError: "internal solver failure",
	SolveStatusSkipped:       "solve processing skipped",
	SolveStatusSystemError:   "system failure",
}

func (s SolveStatus) String() string {
	if name, ok := solveStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SolveStatus(%d)", int(s))
}

// Model status as understood by the host.
type ModelStatus int

const (
	ModelStatusNone                   ModelStatus = 0
	ModelStatusOptimal                ModelStatus = 1
	ModelStatusLocallyOptimal         ModelStatus = 2
	ModelStatusUnbounded              ModelStatus = 3
	ModelStatusInfeasible             ModelStatus = 4
	ModelStatusLocallyInfeasible      ModelStatus = 5
	ModelStatusIntermediateInfeasible ModelStatus = 6
	ModelStatusFeasible               ModelStatus = 7
	ModelStatusInteger                ModelStatus = 8
	ModelStatusIntermediateNonInteger ModelStatus = 9
	ModelStatusIntegerInfeasible      ModelStatus = 10
	ModelStatusLicenseError           ModelStatus = 11
	ModelStatusErrorUnknown           ModelStatus = 12
	ModelStatusErrorNoSolution        ModelStatus = 13
	ModelStatusNoSolutionReturned     ModelStatus = 14
	ModelStatusSolvedUnique           ModelStatus = 15
	ModelStatusSolved                 ModelStatus = 16
	ModelStatusSolvedSingular         ModelStatus = 17
	ModelStatusUnboundedNoSolution    ModelStatus = 18
	ModelStatusInfeasibleNoSolution   ModelStatus = 19
)

var modelStatusNames = map[ModelStatus]string{
	ModelStatusNone:                   "none",
	ModelStatusOptimal:                "optimal",
	ModelStatusLocallyOptimal:         "locally optimal",
	ModelStatusUnbounded:              "unbounded",
	ModelStatusInfeasible:             "infeasible",
	ModelStatusLocallyInfeasible:      "locally infeasible",
	ModelStatusIntermediateInfeasible: "intermediate infeasible",
	ModelStatusFeasible:               "feasible solution",
	ModelStatusInteger:                "integer solution",
	ModelStatusIntermediateNonInteger: "intermediate non-integer",
	ModelStatusIntegerInfeasible:      "integer infeasible",
	ModelStatusLicenseError:           "license error",
	ModelStatusErrorUnknown:           "error unknown",
	ModelStatusErrorNoSolution:        "error no solution",
	ModelStatusNoSolutionReturned:     "no solution returned",
	ModelStatusSolvedUnique:           "solved unique",
	ModelStatusSolved:                 "solved",
	ModelStatusSolvedSingular:         "solved singular",
	ModelStatusUnboundedNoSolution:    "unbounded - no solution",
	ModelStatusInfeasibleNoSolution:   "infeasible - no solution",
}

func (s ModelStatus) String() string {
	if name, ok := modelStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ModelStatus(%d)", int(s))
}

// Returns true if the status implies primal values are available.
func (s ModelStatus) HasSolution() bool {
	switch s {
	case ModelStatusOptimal, ModelStatusLocallyOptimal, ModelStatusFeasible,
		ModelStatusInteger, ModelStatusIntermediateInfeasible,
		ModelStatusIntermediateNonInteger, ModelStatusInfeasible,
		ModelStatusIntegerInfeasible, ModelStatusUnbounded:
		return true
	}
	return false
}
