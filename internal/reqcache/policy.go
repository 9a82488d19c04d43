package reqcache

import (
	"fmt"
	"strings"

	"object-mapper/internal/common"
)

// StoragePolicy decides where responses are kept.
type StoragePolicy int

const (
	// PolicyDisabled drops every response silently.
	PolicyDisabled StoragePolicy = iota
	// PolicyForDurationOfSession keeps responses in memory.
	PolicyForDurationOfSession
	// PolicyPermanently writes responses to the cache directory until invalidated.
	PolicyPermanently
)

// String returns the policy name used in configuration.
func (p StoragePolicy) String() string {
	switch p {
	case PolicyDisabled:
		return "disabled"
	case PolicyForDurationOfSession:
		return "session"
	case PolicyPermanently:
		return "permanent"
	default:
		return common.UnknownStr
	}
}

// ParseStoragePolicy parses a policy name as returned by String.
func ParseStoragePolicy(s string) (StoragePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "none", "":
		return PolicyDisabled, nil
	case "session":
		return PolicyForDurationOfSession, nil
	case "permanent", "permanently":
		return PolicyPermanently, nil
	default:
		return PolicyDisabled, fmt.Errorf("unknown storage policy %q", s)
	}
}
