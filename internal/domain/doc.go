// Package domain models the neighborhood watch data: the DataPackage a
// sensing cycle produces and the Record the store persists around it.
//
// # DataPackage
//
// One package per cycle. Every section holds the raw, undecoded shape the
// upstream API returned:
//
//	raw_weather     JSON object from the weather provider
//	raw_incidents   ordered list of incident/roadwork/event objects
//	raw_ov_updates  ordered list of public transport (OV) updates
//
// A section whose fetch failed carries an error marker instead of data:
// {"error": "<message>"} for raw_weather, [{"error": "<message>"}] for the
// list sections. A failed section never aborts the cycle.
//
// # Record
//
// The store wraps each package in a Record:
//
//	{"id": "20251028104000123456", "fetch_timestamp": "2025-10-28T10:40:00.123456Z",
//	 "raw_payload": {...}, "published_by": "publisher"}
//
// Record IDs are the UTC creation time at microsecond resolution
// (YYYYMMDDhhmmss + 6 digits). Two records created within the same
// microsecond get a "-<n>" counter suffix so IDs stay unique and increase
// with insertion order. See [NextRecordID].
//
// # Errors
//
// Boundary operations return [*Error] values tagged with a [Kind]
// (transport, serialization, io, corrupt) so callers can turn failures into
// data without string matching. Use [KindOf] to classify.
package domain
