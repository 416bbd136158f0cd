package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// notAvailable fills RecentRecord fields missing from a stored record.
const notAvailable = "N/A"

// Record is one persisted, immutable store entry.
type Record struct {
	ID             string          `json:"id"`
	FetchTimestamp string          `json:"fetch_timestamp"`
	RawPayload     json.RawMessage `json:"raw_payload"`
	PublishedBy    string          `json:"published_by"`
}

// RecentRecord is the read projection of a Record returned to dashboards.
type RecentRecord struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Recent projects r for readers, substituting "N/A" for a missing id or
// timestamp and {} for a missing payload.
func (r Record) Recent() RecentRecord {
	out := RecentRecord{ID: r.ID, Timestamp: r.FetchTimestamp, Payload: r.RawPayload}
	if out.ID == "" {
		out.ID = notAvailable
	}
	if out.Timestamp == "" {
		out.Timestamp = notAvailable
	}
	if len(out.Payload) == 0 || string(out.Payload) == "null" {
		out.Payload = json.RawMessage("{}")
	}
	return out
}

// MonitoringLocation extracts monitoring_location from the payload, if the
// payload is a DataPackage.
func (r RecentRecord) MonitoringLocation() string {
	var pkg struct {
		MonitoringLocation string `json:"monitoring_location"`
	}
	if err := json.Unmarshal(r.Payload, &pkg); err != nil {
		return ""
	}
	return pkg.MonitoringLocation
}

// FormatRecordTimestamp renders the fetch_timestamp of a new record.
func FormatRecordTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NextRecordID returns the ID for a record created at now, given the ID of
// the newest stored record (empty if none). The result is strictly greater
// than prev in creation order: when the timestamp base does not advance past
// prev's base, prev's base is reused with an incremented counter suffix.
func NextRecordID(now time.Time, prev string) string {
	now = now.UTC()
	base := now.Format("20060102150405") + fmt.Sprintf("%06d", now.Nanosecond()/int(time.Microsecond))

	prevBase, prevSeq := splitRecordID(prev)
	if len(prevBase) != len(base) || base > prevBase {
		return base
	}
	return fmt.Sprintf("%s-%d", prevBase, prevSeq+1)
}

// splitRecordID separates a record ID into its timestamp base and counter.
// IDs that are not timestamp-derived yield an empty base.
func splitRecordID(id string) (string, int) {
	base, suffix, found := strings.Cut(id, "-")
	if strings.Trim(base, "0123456789") != "" {
		return "", 0
	}
	if !found {
		return base, 0
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return base, 0
	}
	return base, seq
}

// CompareRecordIDs orders two record IDs by creation: it returns -1, 0 or +1
// as a was created before, with, or after b. IDs that are not
// timestamp-derived fall back to string order.
func CompareRecordIDs(a, b string) int {
	aBase, aSeq := splitRecordID(a)
	bBase, bSeq := splitRecordID(b)
	if aBase == "" || bBase == "" {
		return strings.Compare(a, b)
	}
	if c := strings.Compare(aBase, bBase); c != 0 {
		return c
	}
	return cmp.Compare(aSeq, bSeq)
}
