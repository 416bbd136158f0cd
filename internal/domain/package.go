package domain

import "time"

// DataPackage is the raw data collected by one sensing cycle.
type DataPackage struct {
	FetchTimeUTC       string           `json:"fetch_time_utc"`
	MonitoringLocation string           `json:"monitoring_location"`
	RawWeather         map[string]any   `json:"raw_weather"`
	RawIncidents       []map[string]any `json:"raw_incidents"`
	RawOVUpdates       []map[string]any `json:"raw_ov_updates"`
}

// NewDataPackage starts a package for location stamped with the current time.
// Sections start empty but non-nil so they serialize as {} and [].
func NewDataPackage(location string) DataPackage {
	return DataPackage{
		FetchTimeUTC:       FormatFetchTime(Now()),
		MonitoringLocation: location,
		RawWeather:         map[string]any{},
		RawIncidents:       []map[string]any{},
		RawOVUpdates:       []map[string]any{},
	}
}

// IsEmpty reports whether every field of the package is empty.
func (p *DataPackage) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.FetchTimeUTC == "" &&
		p.MonitoringLocation == "" &&
		len(p.RawWeather) == 0 &&
		len(p.RawIncidents) == 0 &&
		len(p.RawOVUpdates) == 0
}

// HasData reports whether weather or incidents were collected.
func (p *DataPackage) HasData() bool {
	return p != nil && (len(p.RawWeather) > 0 || len(p.RawIncidents) > 0)
}

// ErrorSection returns the marker stored in place of a failed object section.
func ErrorSection(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

// ErrorList returns the marker stored in place of a failed list section.
func ErrorList(err error) []map[string]any {
	return []map[string]any{ErrorSection(err)}
}

// FormatFetchTime renders t as an ISO-8601 UTC timestamp with a Z suffix.
func FormatFetchTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
