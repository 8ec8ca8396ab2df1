package domain

// IPInfo is the apparent public identity of the exit node as observed from
// inside the browser session. Error is set (and the rest zero) when the
// lookup itself failed; geolocation is best-effort telemetry.
type IPInfo struct {
	IP          string `json:"ip,omitempty"`
	CountryName string `json:"country_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Region      string `json:"region,omitempty"`
	City        string `json:"city,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ResolutionOutcome is the terminal result of one browser navigation.
// Exactly one of FinalURL or Error characterizes success vs failure: an
// empty FinalURL counts as failure even when no error was raised.
type ResolutionOutcome struct {
	FinalURL      string
	ExitIPInfo    *IPInfo
	ElapsedMillis int64
	Error         string
}

// Succeeded reports whether this outcome counts as a success for stats
// accounting.
func (o ResolutionOutcome) Succeeded() bool {
	return o.FinalURL != "" && o.Error == ""
}
