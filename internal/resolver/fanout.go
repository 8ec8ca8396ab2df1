package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"linktrace/internal/domain"
)

// RegionResult is one positional entry of a fan-out resolution.
type RegionResult struct {
	Region  string
	Outcome domain.ResolutionOutcome
}

// ResolveMany runs one session per requested region concurrently and
// returns results aligned with the input order. There is no cap on fan-out
// width; a wide request incurs proportional remote-browser load. One
// region's failure never cancels its siblings, and every region gets a
// result entry. Stats are updated once per region entry after all sessions
// complete.
func (r *Resolver) ResolveMany(ctx context.Context, inputURL string, regionCodes []string, identityPreference string) ([]RegionResult, error) {
	if err := validateInputURL(inputURL); err != nil {
		return nil, err
	}
	if len(regionCodes) == 0 {
		return nil, fmt.Errorf("%w: regions are required", ErrBadRequest)
	}

	results := make([]RegionResult, len(regionCodes))

	var wg sync.WaitGroup
	for i, code := range regionCodes {
		region := strings.ToUpper(strings.TrimSpace(code))
		results[i].Region = region

		wg.Add(1)
		go func(i int, region string) {
			defer wg.Done()

			exit, err := r.Registry.ExitFor(region)
			if err != nil {
				results[i].Outcome = domain.ResolutionOutcome{Error: err.Error()}
				return
			}

			profile := r.Identity.Select(identityPreference)
			results[i].Outcome = r.resolveSession(ctx, inputURL, exit, profile)
		}(i, region)
	}
	wg.Wait()

	for _, res := range results {
		r.recordOutcome(inputURL, res.Region, res.Outcome)
	}

	return results, nil
}
