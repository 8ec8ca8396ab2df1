package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"linktrace/internal/api/dto"
	"linktrace/internal/regions"
	"linktrace/internal/resolver"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	inputURL := q.Get("url")
	requestedRegion := q.Get("region")
	uaType := q.Get("uaType")

	// Sessions deliberately run to completion even if the HTTP client
	// disconnects, so the request context is not propagated.
	result, err := s.Resolver.Resolve(context.Background(), inputURL, requestedRegion, uaType)
	if err != nil {
		var confErr *regions.ConfigurationError
		switch {
		case errors.Is(err, resolver.ErrBadRequest):
			writeError(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &confErr):
			writeError(w, confErr.Error(), http.StatusBadRequest)
		default:
			writeFailure(w, "resolution failed", err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.Activity.Record("resolve", fmt.Sprintf("%s via %s", inputURL, result.Region))

	if !result.Outcome.Succeeded() {
		details := result.Outcome.Error
		if details == "" {
			details = "no final url"
		}
		writeFailure(w, "resolution failed", details, http.StatusInternalServerError)
		return
	}

	finalURL := result.Outcome.FinalURL
	if requestedRegion == "" {
		requestedRegion = result.Region
	}

	writeJSON(w, http.StatusOK, dto.ResolveResponse{
		OriginalURL:     inputURL,
		FinalURL:        finalURL,
		Region:          result.Region,
		RequestedRegion: requestedRegion,
		ActualRegion:    result.Reconciled.ActualRegion,
		RegionMatch:     result.Reconciled.Matched,
		Method:          "browser-api",
		HasClickID:      strings.Contains(finalURL, "clickid=") || strings.Contains(finalURL, "clickId="),
		HasClickRef:     strings.Contains(finalURL, "clickref="),
		HasUtmSource:    strings.Contains(finalURL, "utm_source="),
		HasImRef:        strings.Contains(finalURL, "im_ref="),
		HasMtkSource:    strings.Contains(finalURL, "mkt_source="),
		HasTduID:        strings.Contains(finalURL, "tduid="),
		HasPublisherID:  strings.Contains(finalURL, "publisherId="),
		IPData:          result.Outcome.ExitIPInfo,
		UAType:          string(result.Profile.DeviceClass),
	})
}

func (s *Server) handleResolveMultiple(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	inputURL := q.Get("url")
	regionsCSV := q.Get("regions")
	uaType := q.Get("uaType")

	if regionsCSV == "" {
		writeError(w, "regions parameter is required", http.StatusBadRequest)
		return
	}

	var regionCodes []string
	for _, code := range strings.Split(regionsCSV, ",") {
		if code = strings.TrimSpace(code); code != "" {
			regionCodes = append(regionCodes, code)
		}
	}

	results, err := s.Resolver.ResolveMany(context.Background(), inputURL, regionCodes, uaType)
	if err != nil {
		if errors.Is(err, resolver.ErrBadRequest) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeFailure(w, "resolution failed", err.Error(), http.StatusInternalServerError)
		return
	}

	s.Activity.Record("resolve-multiple", fmt.Sprintf("%s via %s", inputURL, strings.Join(regionCodes, ",")))

	response := dto.MultiResolveResponse{
		OriginalURL: inputURL,
		Results:     make([]dto.MultiResolveResult, len(results)),
	}
	for i, res := range results {
		entry := dto.MultiResolveResult{
			Region: res.Region,
			IPData: res.Outcome.ExitIPInfo,
		}
		if res.Outcome.FinalURL != "" {
			finalURL := res.Outcome.FinalURL
			entry.FinalURL = &finalURL
		}
		response.Results[i] = entry
	}

	writeJSON(w, http.StatusOK, response)
}
