// Package store persists Records in a bounded, append-only JSON file.
//
// The file holds a single JSON array of records, oldest first, indented with
// four spaces. Every append reads the whole array, adds one record, drops the
// oldest entries beyond the configured bound (100 by default) and rewrites
// the whole file. Reads return the newest records first.
//
// Within a process a Store serializes its own reads and writes, and each
// rewrite lands through a temp file and rename, so readers in any process
// never see a partial file. Concurrent appends from separate processes still
// race on the read-modify-write and can lose records.
//
// A missing or zero-length file is (re)created as an empty array. A file that
// does not decode as a record array is reported as [domain.KindCorrupt]:
// reads degrade to an empty result and appends refuse to overwrite it.
package store
