package dto

import "linktrace/internal/domain"

type ResolveResponse struct {
	OriginalURL     string         `json:"originalUrl"`
	FinalURL        string         `json:"finalUrl"`
	Region          string         `json:"region"`
	RequestedRegion string         `json:"requestedRegion"`
	ActualRegion    string         `json:"actualRegion"`
	RegionMatch     bool           `json:"regionMatch"`
	Method          string         `json:"method"`
	HasClickID      bool           `json:"hasClickId"`
	HasClickRef     bool           `json:"hasClickRef"`
	HasUtmSource    bool           `json:"hasUtmSource"`
	HasImRef        bool           `json:"hasImRef"`
	HasMtkSource    bool           `json:"hasMtkSource"`
	HasTduID        bool           `json:"hasTduId"`
	HasPublisherID  bool           `json:"hasPublisherId"`
	IPData          *domain.IPInfo `json:"ipData"`
	UAType          string         `json:"uaType"`
}

type MultiResolveResult struct {
	Region   string         `json:"region"`
	FinalURL *string        `json:"finalUrl"`
	IPData   *domain.IPInfo `json:"ipData"`
}

type MultiResolveResponse struct {
	OriginalURL string               `json:"originalUrl"`
	Results     []MultiResolveResult `json:"results"`
}
