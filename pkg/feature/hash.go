package feature

import "github.com/cespare/xxhash/v2"

// UserHash hashes the concatenation of userID and flagKey with xxHash64 (seed 0).
// The value is stable across processes, restarts and implementations, so a user
// keeps the same bucket for a flag on every deployment.
func UserHash(userID, flagKey string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(userID)
	_, _ = d.WriteString(flagKey)
	return d.Sum64()
}

// Bucket maps a user/flag pair to an integer in [0,100).
func Bucket(userID, flagKey string) int {
	return int(UserHash(userID, flagKey) % 100)
}
