package resolver

import (
	"strings"

	"linktrace/internal/domain"
)

// UnknownRegion is the sentinel actual-region when the exit's geolocation
// carries no country code.
const UnknownRegion = "Unknown"

// ReconcileResult compares the requested region against the region inferred
// from the exit node's public IP. A mismatch is informational only; proxy
// exits occasionally egress from unexpected countries and that never makes
// the resolution a failure.
type ReconcileResult struct {
	ActualRegion string
	Matched      bool
}

// Reconcile derives the actual region from the exit's geolocation and flags
// whether it matches the requested region, case-insensitively.
func Reconcile(requestedRegion string, info *domain.IPInfo) ReconcileResult {
	actual := UnknownRegion
	if info != nil && info.CountryCode != "" {
		actual = strings.ToUpper(info.CountryCode)
	}

	return ReconcileResult{
		ActualRegion: actual,
		Matched:      strings.EqualFold(actual, requestedRegion),
	}
}
