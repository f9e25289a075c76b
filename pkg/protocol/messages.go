// Package protocol defines the JSON messages exchanged with the remote
// solve service.
package protocol

// Default name of the single problem in a submission.
const ProblemName = "problem.lp"

type Problem struct {
	Name string `json:"name"`
	// Base64 encoded LP text.
	Data string `json:"data"`
}

type SubmitRequest struct {
	Options  map[string]any `json:"options"`
	Problems []Problem      `json:"problems"`
	Timeout  int64          `json:"timeout"`
}

type SubmitResponse struct {
	ID string `json:"id"`
}

type StatusResponse struct {
	Status JobStatus `json:"status"`
}

type VariableValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Solver outcome reported in the results bundle.
type ResultStatus string

const (
	ResultOptimal     ResultStatus = "optimal"
	ResultFeasible    ResultStatus = "feasible"
	ResultInfeasible  ResultStatus = "infeasible"
	ResultUnbounded   ResultStatus = "unbounded"
	ResultTimeout     ResultStatus = "timeout"
	ResultInterrupted ResultStatus = "interrupted"
	ResultFailed      ResultStatus = "failed"
)

type Result struct {
	Status         ResultStatus    `json:"status"`
	ObjectiveValue float64         `json:"objective_value"`
	Variables      []VariableValue `json:"variables"`
}

type ResultsResponse struct {
	Result Result `json:"result"`
}

type JobSummary struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Algorithm string    `json:"algorithm,omitempty"`
	Submitted string    `json:"submitted,omitempty"`
}

type JobList struct {
	Jobs []JobSummary `json:"jobs"`
}
