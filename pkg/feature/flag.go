package feature

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"time"
)

// DefaultPercentage is the rollout percentage applied when none is configured.
const DefaultPercentage = 100

// SystemActor is recorded as the author of writes that carry no explicit actor.
const SystemActor = "system"

// Flag represents a feature flag scoped to a single tenant.
// The pair (TenantID, Key) is its identity.
type Flag struct {
	TenantID       string           `json:"tenantId"`
	Key            string           `json:"flagKey"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Enabled        bool             `json:"enabled"`
	Rollout        *RolloutStrategy `json:"rollout,omitempty"`
	Environment    string           `json:"environment,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	CreatedAt      time.Time        `json:"createdAt,omitzero"`
	UpdatedAt      time.Time        `json:"updatedAt,omitzero"`
	CreatedBy      string           `json:"createdBy,omitempty"`
	LastModifiedBy string           `json:"lastModifiedBy,omitempty"`
}

// Validate checks the flag identity and its rollout strategy.
func (f *Flag) Validate() error {
	if f == nil {
		return errors.Join(ErrInvalidArgument, errors.New("flag cannot be nil"))
	}
	if f.TenantID == "" {
		return errors.Join(ErrInvalidArgument, errors.New("tenant id cannot be empty"))
	}
	if f.Key == "" {
		return errors.Join(ErrInvalidArgument, errors.New("flag key cannot be empty"))
	}
	if f.Rollout != nil {
		return f.Rollout.Validate()
	}
	return nil
}

// Clone returns a deep copy of the flag.
func (f *Flag) Clone() *Flag {
	if f == nil {
		return nil
	}
	c := *f
	c.Tags = slices.Clone(f.Tags)
	c.Rollout = f.Rollout.Clone()
	return &c
}

// RolloutPercentage returns the effective percentage of users that see the flag.
func (f *Flag) RolloutPercentage() int {
	if f.Rollout == nil {
		return DefaultPercentage
	}
	return f.Rollout.Percentage
}

// Summary maps the flag to its read model.
func (f *Flag) Summary() FlagSummary {
	tags := slices.Clone(f.Tags)
	if tags == nil {
		tags = []string{}
	}
	return FlagSummary{
		FlagKey:           f.Key,
		Name:              f.Name,
		Enabled:           f.Enabled,
		Environment:       f.Environment,
		RolloutPercentage: f.RolloutPercentage(),
		UpdatedAt:         f.UpdatedAt,
		Tags:              tags,
	}
}

// RolloutStrategy narrows a flag's baseline state to a subset of users.
type RolloutStrategy struct {
	Percentage  int            `json:"percentage"`
	UserIDs     []string       `json:"userIds,omitempty"`
	Segments    []string       `json:"segments,omitempty"`
	Geographies []string       `json:"geographies,omitempty"`
	CustomRules map[string]any `json:"customRules,omitempty"`
	StartDate   *time.Time     `json:"startDate,omitempty"`
	EndDate     *time.Time     `json:"endDate,omitempty"`
}

// NewRolloutStrategy returns a strategy that enables the flag for everyone.
func NewRolloutStrategy() *RolloutStrategy {
	return &RolloutStrategy{Percentage: DefaultPercentage}
}

// UnmarshalJSON keeps Percentage at DefaultPercentage when the payload omits it.
func (r *RolloutStrategy) UnmarshalJSON(data []byte) error {
	type plain RolloutStrategy
	aux := plain{Percentage: DefaultPercentage}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = RolloutStrategy(aux)
	return nil
}

// Validate checks percentage bounds and the temporal window.
func (r *RolloutStrategy) Validate() error {
	if r.Percentage < 0 || r.Percentage > 100 {
		return errors.Join(ErrInvalidStrategy, errors.New("percentage must be between 0 and 100"))
	}
	if r.StartDate != nil && r.EndDate != nil && r.StartDate.After(*r.EndDate) {
		return errors.Join(ErrInvalidStrategy, errors.New("start date must not be after end date"))
	}
	return nil
}

// Active reports whether now falls inside the [StartDate, EndDate] window.
func (r *RolloutStrategy) Active(now time.Time) bool {
	if r.StartDate != nil && now.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && now.After(*r.EndDate) {
		return false
	}
	return true
}

// Clone returns a deep copy of the strategy.
func (r *RolloutStrategy) Clone() *RolloutStrategy {
	if r == nil {
		return nil
	}
	c := *r
	c.UserIDs = slices.Clone(r.UserIDs)
	c.Segments = slices.Clone(r.Segments)
	c.Geographies = slices.Clone(r.Geographies)
	c.CustomRules = maps.Clone(r.CustomRules)
	if r.StartDate != nil {
		t := *r.StartDate
		c.StartDate = &t
	}
	if r.EndDate != nil {
		t := *r.EndDate
		c.EndDate = &t
	}
	return &c
}

// FlagSummary is the lightweight read model returned by listings.
type FlagSummary struct {
	FlagKey           string    `json:"flagKey"`
	Name              string    `json:"name"`
	Enabled           bool      `json:"enabled"`
	Environment       string    `json:"environment,omitempty"`
	RolloutPercentage int       `json:"rolloutPercentage"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Tags              []string  `json:"tags"`
}
