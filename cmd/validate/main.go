// Command validate checks a record store file for integrity: that it decodes,
// stays within the retention bound, carries unique IDs in creation order and
// holds well-formed data packages.
//
// Usage:
//
//	go run ./cmd/validate -store data/alerts.json [-max 100]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	storePath := flag.String("store", "", "path to the record store JSON file")
	maxRecords := flag.Int("max", store.DefaultMaxRecords, "retention bound the store must respect")
	flag.Parse()

	if *storePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *storePath, *maxRecords))
}

func run(w io.Writer, path string, maxRecords int) int {
	fmt.Fprintln(w, "=== Record Store Validation ===")
	fmt.Fprintln(w)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "FATAL: read store: %v\n", err)
		return 1
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		fmt.Fprintf(w, "FATAL: store is not a JSON record array: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateBound(records, maxRecords),
		validateIDs(records),
		validateFields(records),
		validatePayloads(records),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintf(w, "\nRecords: %d (bound %d)\n", len(records), maxRecords)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func validateBound(records []domain.Record, maxRecords int) *phase {
	p := &phase{name: "Retention bound"}
	if len(records) > maxRecords {
		p.errorf("store holds %d records, bound is %d", len(records), maxRecords)
	}
	return p
}

func validateIDs(records []domain.Record) *phase {
	p := &phase{name: "Unique IDs in creation order"}
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if first, dup := seen[rec.ID]; dup {
			p.errorf("record %d: id %q duplicates record %d", i, rec.ID, first)
			continue
		}
		seen[rec.ID] = i
		if i > 0 && domain.CompareRecordIDs(records[i-1].ID, rec.ID) >= 0 {
			p.errorf("record %d: id %q does not follow %q", i, rec.ID, records[i-1].ID)
		}
	}
	return p
}

func validateFields(records []domain.Record) *phase {
	p := &phase{name: "Required record fields"}
	for i, rec := range records {
		if rec.ID == "" {
			p.errorf("record %d: missing id", i)
		}
		if rec.FetchTimestamp == "" {
			p.errorf("record %d: missing fetch_timestamp", i)
		}
		if len(rec.RawPayload) == 0 {
			p.errorf("record %d: missing raw_payload", i)
		}
		if rec.PublishedBy == "" {
			p.errorf("record %d: missing published_by", i)
		}
	}
	return p
}

func validatePayloads(records []domain.Record) *phase {
	p := &phase{name: "Data package payloads"}
	for i, rec := range records {
		if len(rec.RawPayload) == 0 {
			continue
		}
		var pkg domain.DataPackage
		if err := json.Unmarshal(rec.RawPayload, &pkg); err != nil {
			p.errorf("record %d (%s): payload is not a data package: %v", i, rec.ID, err)
			continue
		}
		if pkg.IsEmpty() {
			p.errorf("record %d (%s): empty data package was published", i, rec.ID)
		}
		if pkg.MonitoringLocation == "" {
			p.errorf("record %d (%s): missing monitoring_location", i, rec.ID)
		}
	}
	return p
}
