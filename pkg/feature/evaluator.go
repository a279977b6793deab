package feature

import (
	"fmt"
	"slices"
	"time"
)

// Evaluation reasons.
const (
	ReasonDisabled      = "flag disabled"
	ReasonFullyEnabled  = "fully enabled"
	ReasonOutsideWindow = "outside rollout window"
	ReasonAllowListed   = "user allow-listed"
	ReasonSegment       = "segment excluded"
	ReasonGeography     = "geography excluded"
	ReasonCustomRule    = "custom rule excluded"
	ReasonNotFound      = "flag not found"
)

// Names of the rule that produced a decision.
const (
	StrategyDisabled   = "disabled"
	StrategyDefault    = "default"
	StrategyWindow     = "window"
	StrategyUser       = "user"
	StrategySegment    = "segment"
	StrategyGeography  = "geography"
	StrategyCustom     = "custom"
	StrategyPercentage = "percentage"
	StrategyNotFound   = "not_found"
)

// Decision is the outcome of applying a rollout strategy to a user.
type Decision struct {
	Enabled  bool
	Reason   string
	Strategy string
}

// Decide applies the flag's rollout strategy to the user. The first matching
// rule wins: explicit allow and deny rules narrow before percentage bucketing.
// Decide holds no state; identical inputs always produce identical output.
func Decide(flag *Flag, user *UserContext, now time.Time) Decision {
	if flag == nil {
		return Decision{Reason: ReasonNotFound, Strategy: StrategyNotFound}
	}
	if !flag.Enabled {
		return Decision{Reason: ReasonDisabled, Strategy: StrategyDisabled}
	}

	r := flag.Rollout
	if r == nil {
		return Decision{Enabled: true, Reason: ReasonFullyEnabled, Strategy: StrategyDefault}
	}
	if !r.Active(now) {
		return Decision{Reason: ReasonOutsideWindow, Strategy: StrategyWindow}
	}

	var userID string
	if user != nil {
		userID = user.UserID
	}
	if userID != "" && slices.Contains(r.UserIDs, userID) {
		return Decision{Enabled: true, Reason: ReasonAllowListed, Strategy: StrategyUser}
	}
	if len(r.Segments) > 0 && !slices.Contains(r.Segments, user.Segment()) {
		return Decision{Reason: ReasonSegment, Strategy: StrategySegment}
	}
	if len(r.Geographies) > 0 && !slices.Contains(r.Geographies, user.Country()) {
		return Decision{Reason: ReasonGeography, Strategy: StrategyGeography}
	}
	if !matchCustomRules(r.CustomRules, user) {
		return Decision{Reason: ReasonCustomRule, Strategy: StrategyCustom}
	}

	bucket := user.Bucket(flag.Key)
	return Decision{
		Enabled:  bucket < r.Percentage,
		Reason:   fmt.Sprintf("percentage rollout: bucket %d vs %d%%", bucket, r.Percentage),
		Strategy: StrategyPercentage,
	}
}

// matchCustomRules requires every rule key to be present among the user
// attributes with exactly the rule's value in its string form.
func matchCustomRules(rules map[string]any, user *UserContext) bool {
	for key, want := range rules {
		got, ok := user.Attribute(key)
		if !ok || got != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Evaluator turns decisions into timestamped evaluation results.
type Evaluator struct {
	now func() time.Time
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock overrides the time source used for rollout windows and timestamps.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator creates an evaluator using the wall clock in UTC.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides the flag for the user at the current time.
func (e *Evaluator) Evaluate(flag *Flag, user *UserContext) EvaluationResult {
	now := e.now()
	d := Decide(flag, user, now)
	res := EvaluationResult{
		Enabled:     d.Enabled,
		Reason:      d.Reason,
		Strategy:    d.Strategy,
		EvaluatedAt: now,
	}
	if flag != nil {
		res.FlagKey = flag.Key
	}
	return res
}

// Now returns the evaluator's current time.
func (e *Evaluator) Now() time.Time {
	return e.now()
}
