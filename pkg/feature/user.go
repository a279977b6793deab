package feature

import (
	"maps"

	"github.com/dmitrymomot/flagkit/pkg/environment"
)

// Well-known attribute keys read by the rollout evaluator.
const (
	AttrSegment    = "segment"
	AttrCountry    = "country"
	AttrEmail      = "email"
	AttrDeviceType = "deviceType"
)

// UserContext carries the identity and attributes of the user a flag is evaluated for.
type UserContext struct {
	UserID      string            `json:"userId"`
	TenantID    string            `json:"tenantId"`
	Environment string            `json:"environment"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// NewUserContext builds a user context in the production environment.
func NewUserContext(tenantID, userID string, attrs map[string]string) *UserContext {
	return &UserContext{
		UserID:      userID,
		TenantID:    tenantID,
		Environment: string(environment.Production),
		Attributes:  maps.Clone(attrs),
	}
}

// Attribute returns the attribute value and whether it was set.
func (u *UserContext) Attribute(key string) (string, bool) {
	if u == nil || u.Attributes == nil {
		return "", false
	}
	v, ok := u.Attributes[key]
	return v, ok
}

// Segment returns the "segment" attribute.
func (u *UserContext) Segment() string {
	v, _ := u.Attribute(AttrSegment)
	return v
}

// Country returns the "country" attribute.
func (u *UserContext) Country() string {
	v, _ := u.Attribute(AttrCountry)
	return v
}

// Email returns the "email" attribute.
func (u *UserContext) Email() string {
	v, _ := u.Attribute(AttrEmail)
	return v
}

// DeviceType returns the "deviceType" attribute.
func (u *UserContext) DeviceType() string {
	v, _ := u.Attribute(AttrDeviceType)
	return v
}

// Hash returns the deterministic hash of the user for the given flag.
func (u *UserContext) Hash(flagKey string) uint64 {
	var userID string
	if u != nil {
		userID = u.UserID
	}
	return UserHash(userID, flagKey)
}

// Bucket returns the user's percentage bucket in [0,100) for the given flag.
func (u *UserContext) Bucket(flagKey string) int {
	return int(u.Hash(flagKey) % 100)
}
