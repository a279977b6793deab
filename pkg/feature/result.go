package feature

import "time"

// EvaluationResult is the outcome of evaluating one flag for one user.
// It is never persisted or cached.
type EvaluationResult struct {
	FlagKey     string    `json:"flagKey"`
	Enabled     bool      `json:"enabled"`
	Reason      string    `json:"reason"`
	Strategy    string    `json:"strategy"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// EvaluationResponse groups the results of a batch evaluation.
type EvaluationResponse struct {
	EvaluationID   string                      `json:"evaluationId"`
	Flags          map[string]EvaluationResult `json:"flags"`
	EvaluatedAt    time.Time                   `json:"evaluatedAt"`
	ProcessingTime time.Duration               `json:"processingTime"`
}
