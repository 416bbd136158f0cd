// Command genmock writes a record store fixture by running watch cycles
// against the mock data sources under a fixed, advancing clock. Record IDs,
// timestamps and generated values are reproducible for a given seed; only the
// cuid incident and transit ids differ between runs.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out testdata/alerts.json \
//	  -cycles 12 -seed 42 -location "Rotterdam, Netherlands"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/neighborhood-watch/internal/adapter/mock"
	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/pipeline"
	"github.com/couchcryptid/neighborhood-watch/internal/store"
	"github.com/jonboulle/clockwork"
)

var baseTime = time.Date(2025, time.October, 28, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the record store fixture")
	cycles := flag.Int("cycles", 12, "number of watch cycles to record")
	seed := flag.Int64("seed", 42, "mock generator seed (non-zero)")
	location := flag.String("location", "Rotterdam, Netherlands", "monitored location")
	interval := flag.Duration("interval", 15*time.Minute, "simulated time between cycles")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return errors.New("missing required flag: -out")
	}
	if *cycles < 1 || *cycles > store.DefaultMaxRecords {
		return fmt.Errorf("-cycles must be between 1 and %d", store.DefaultMaxRecords)
	}
	if *seed == 0 {
		return errors.New("-seed must be non-zero for a reproducible fixture")
	}

	// Start from an empty file so reruns do not accumulate records.
	if err := os.Remove(*out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove old fixture: %w", err)
	}

	clock := clockwork.NewFakeClockAt(baseTime)
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := mock.NewGenerator(*seed)
	st := store.New(*out, logger, store.WithPublishedBy("genmock"))
	sensor := pipeline.NewSensor(gen, gen, logger, pipeline.WithTransitSource(gen))
	runner := pipeline.New(sensor, pipeline.NewPublisher(st, logger), logger, nil)

	ctx := context.Background()
	for i := range *cycles {
		res := runner.RunCycle(ctx, *location)
		if res.Aborted || res.Publish.Status != pipeline.StatusSuccess {
			return fmt.Errorf("cycle %d: %s", i+1, res.Publish.String())
		}
		clock.Advance(*interval)
	}

	records, err := st.FetchRecent(ctx, *cycles)
	if err != nil {
		return fmt.Errorf("read back fixture: %w", err)
	}
	log.Printf("wrote %d records to %s", len(records), *out)
	if len(records) > 0 {
		log.Printf("newest: %s (%s)", records[0].ID, records[0].Timestamp)
	}
	return nil
}
