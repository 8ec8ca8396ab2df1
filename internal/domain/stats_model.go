package domain

// RegionStat holds the per-region success/failure counters.
type RegionStat struct {
	SuccessCount int64 `json:"success"`
	FailureCount int64 `json:"failure"`
}

// FailedURL is one entry of the failed-URL ledger.
type FailedURL struct {
	URL    string `json:"url"`
	Region string `json:"region"`
	Reason string `json:"reason"`
}

// ResolutionStats is a point-in-time snapshot of the in-memory counters.
// Purely in-memory, zeroed at startup and at every scheduled reset.
type ResolutionStats struct {
	SuccessCount int64                 `json:"totalSuccess"`
	FailureCount int64                 `json:"totalFailure"`
	PerRegion    map[string]RegionStat `json:"perRegion"`
	FailedURLs   []FailedURL           `json:"failedUrls"`
}

// TimingSample is one durable timing record. Date is the local calendar
// day in YYYY-MM-DD form.
type TimingSample struct {
	Date          string `json:"date"`
	URL           string `json:"url"`
	ElapsedMillis int64  `json:"time"`
}
