package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/observability"
	"github.com/couchcryptid/neighborhood-watch/internal/pipeline"
	"github.com/couchcryptid/neighborhood-watch/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockWeather struct {
	data  map[string]any
	err   error
	panic bool
}

func (m *mockWeather) FetchWeather(_ context.Context, location string) (map[string]any, error) {
	if m.panic {
		panic("weather exploded")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type mockIncidents struct {
	data []map[string]any
	err  error
}

func (m *mockIncidents) FetchIncidents(_ context.Context, _ string) ([]map[string]any, error) {
	return m.data, m.err
}

type mockTransit struct {
	data []map[string]any
	err  error
}

func (m *mockTransit) FetchTransitUpdates(_ context.Context, _ string) ([]map[string]any, error) {
	return m.data, m.err
}

type mockAppender struct {
	calls   int
	payload any
	rec     domain.Record
	err     error
	panic   bool
}

func (m *mockAppender) Append(_ context.Context, payload any) (domain.Record, error) {
	m.calls++
	m.payload = payload
	if m.panic {
		panic("disk on fire")
	}
	return m.rec, m.err
}

type mockMirror struct {
	records []domain.Record
	err     error
}

func (m *mockMirror) MirrorRecord(_ context.Context, rec domain.Record) error {
	m.records = append(m.records, rec)
	return m.err
}

type mockPerceiver struct {
	pkg domain.DataPackage
}

func (m *mockPerceiver) Perceive(_ context.Context, _ string) domain.DataPackage {
	return m.pkg
}

type mockActor struct {
	calls  int
	result pipeline.Result
}

func (m *mockActor) Act(_ context.Context, _ *domain.DataPackage) pipeline.Result {
	m.calls++
	return m.result
}

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.October, 28, 10, 40, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func sampleWeather() map[string]any {
	return map[string]any{"city": "Amsterdam", "temperature_c": 14.2, "condition": "Sunny"}
}

func sampleIncidents() []map[string]any {
	return []map[string]any{
		{"id": "I101", "type": "ROADWORK", "location": "Kerkstraat near #25"},
		{"id": "I102", "type": "INCIDENT", "location": "Vondelpark West entrance"},
	}
}

// --- sensor ---

func TestSensor_Perceive_AllSources(t *testing.T) {
	freezeClock(t)
	transit := []map[string]any{{"line": "Tram 3", "status": "DELAYED"}}
	s := pipeline.NewSensor(
		&mockWeather{data: sampleWeather()},
		&mockIncidents{data: sampleIncidents()},
		discardLogger(),
		pipeline.WithTransitSource(&mockTransit{data: transit}),
	)

	pkg := s.Perceive(context.Background(), "Amsterdam")

	want := domain.DataPackage{
		FetchTimeUTC:       "2025-10-28T10:40:00Z",
		MonitoringLocation: "Amsterdam",
		RawWeather:         sampleWeather(),
		RawIncidents:       sampleIncidents(),
		RawOVUpdates:       transit,
	}
	if diff := cmp.Diff(want, pkg); diff != "" {
		t.Fatalf("package mismatch (-want +got):\n%s", diff)
	}
}

func TestSensor_Perceive_WeatherFailureIsIsolated(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	s := pipeline.NewSensor(
		&mockWeather{err: errors.New("connection refused")},
		&mockIncidents{data: sampleIncidents()},
		discardLogger(),
		pipeline.WithSensorMetrics(metrics),
	)

	pkg := s.Perceive(context.Background(), "Amsterdam")

	assert.Equal(t, map[string]any{"error": "connection refused"}, pkg.RawWeather)
	assert.Equal(t, sampleIncidents(), pkg.RawIncidents)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchErrors.WithLabelValues("weather")), 0.0001)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.FetchErrors.WithLabelValues("incidents")), 0.0001)
}

func TestSensor_Perceive_WeatherPanicIsRecovered(t *testing.T) {
	s := pipeline.NewSensor(
		&mockWeather{panic: true},
		&mockIncidents{data: sampleIncidents()},
		discardLogger(),
	)

	var pkg domain.DataPackage
	require.NotPanics(t, func() {
		pkg = s.Perceive(context.Background(), "Amsterdam")
	})
	assert.Equal(t, "weather source panicked: weather exploded", pkg.RawWeather["error"])
	assert.Len(t, pkg.RawIncidents, 2)
}

func TestSensor_Perceive_IncidentFailureIsIsolated(t *testing.T) {
	s := pipeline.NewSensor(
		&mockWeather{data: sampleWeather()},
		&mockIncidents{err: domain.NewError(domain.KindTransport, "incidents request", errors.New("status 503"))},
		discardLogger(),
	)

	pkg := s.Perceive(context.Background(), "Amsterdam")

	assert.Equal(t, sampleWeather(), pkg.RawWeather)
	require.Len(t, pkg.RawIncidents, 1)
	assert.Equal(t, "incidents request: transport error: status 503", pkg.RawIncidents[0]["error"])
}

func TestSensor_Perceive_TransitFailure(t *testing.T) {
	s := pipeline.NewSensor(
		&mockWeather{data: sampleWeather()},
		&mockIncidents{data: sampleIncidents()},
		discardLogger(),
		pipeline.WithTransitSource(&mockTransit{err: errors.New("feed offline")}),
	)

	pkg := s.Perceive(context.Background(), "Amsterdam")
	assert.Equal(t, []map[string]any{{"error": "feed offline"}}, pkg.RawOVUpdates)
	assert.Equal(t, sampleWeather(), pkg.RawWeather)
}

func TestSensor_Perceive_NoTransitSourceLeavesSectionEmpty(t *testing.T) {
	s := pipeline.NewSensor(&mockWeather{data: sampleWeather()}, &mockIncidents{data: sampleIncidents()}, discardLogger())

	pkg := s.Perceive(context.Background(), "Amsterdam")
	assert.NotNil(t, pkg.RawOVUpdates)
	assert.Empty(t, pkg.RawOVUpdates)
}

func TestSensor_Perceive_InlineErrorShapeKept(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	inline := map[string]any{"error": "Failed to fetch weather data: 401"}
	s := pipeline.NewSensor(
		&mockWeather{data: inline},
		&mockIncidents{data: sampleIncidents()},
		discardLogger(),
		pipeline.WithSensorMetrics(metrics),
	)

	pkg := s.Perceive(context.Background(), "Amsterdam")
	assert.Equal(t, inline, pkg.RawWeather)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchErrors.WithLabelValues("weather")), 0.0001)
}

func TestSensor_Perceive_WarnsWhenNothingCollected(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := pipeline.NewSensor(&mockWeather{}, &mockIncidents{}, logger)

	pkg := s.Perceive(context.Background(), "Amsterdam")

	assert.Empty(t, pkg.RawWeather)
	assert.Empty(t, pkg.RawIncidents)
	assert.Equal(t, "Amsterdam", pkg.MonitoringLocation)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "no weather or incident data retrieved")
}

// --- publisher ---

func TestPublisher_Act_EmptyPackageSkipped(t *testing.T) {
	app := &mockAppender{}
	p := pipeline.NewPublisher(app, discardLogger())

	for _, pkg := range []*domain.DataPackage{nil, {}} {
		res := p.Act(context.Background(), pkg)
		assert.Equal(t, pipeline.StatusSkipped, res.Status)
		assert.Contains(t, res.String(), "Skipped")
	}
	assert.Zero(t, app.calls, "store append must not be called")
}

func TestPublisher_Act_Success(t *testing.T) {
	app := &mockAppender{rec: domain.Record{ID: "20251028104000000000"}}
	mirror := &mockMirror{}
	p := pipeline.NewPublisher(app, discardLogger(), pipeline.WithMirror(mirror))

	pkg := domain.NewDataPackage("Amsterdam")
	res := p.Act(context.Background(), &pkg)

	assert.Equal(t, pipeline.StatusSuccess, res.Status)
	assert.Equal(t, "20251028104000000000", res.RecordID)
	assert.Contains(t, res.String(), "SUCCESS")
	assert.Equal(t, 1, app.calls)
	assert.Same(t, &pkg, app.payload)
	require.Len(t, mirror.records, 1)
	assert.Equal(t, "20251028104000000000", mirror.records[0].ID)
}

func TestPublisher_Act_StoreFailure(t *testing.T) {
	app := &mockAppender{err: domain.NewError(domain.KindIO, "write store", errors.New("disk full"))}
	mirror := &mockMirror{}
	p := pipeline.NewPublisher(app, discardLogger(), pipeline.WithMirror(mirror))

	pkg := domain.NewDataPackage("Amsterdam")
	res := p.Act(context.Background(), &pkg)

	assert.Equal(t, pipeline.StatusFailure, res.Status)
	assert.Equal(t, domain.KindIO, res.Kind)
	assert.Contains(t, res.String(), "FAILURE")
	assert.Contains(t, res.String(), "disk full")
	assert.Empty(t, mirror.records)
}

func TestPublisher_Act_PanicBecomesFailure(t *testing.T) {
	p := pipeline.NewPublisher(&mockAppender{panic: true}, discardLogger())

	pkg := domain.NewDataPackage("Amsterdam")
	var res pipeline.Result
	require.NotPanics(t, func() {
		res = p.Act(context.Background(), &pkg)
	})
	assert.Equal(t, pipeline.StatusFailure, res.Status)
	assert.Equal(t, domain.KindUnknown, res.Kind)
	assert.Contains(t, res.String(), "RUNTIME ERROR")
	assert.Contains(t, res.String(), "disk on fire")
}

func TestPublisher_Act_MirrorFailureKeepsSuccess(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	app := &mockAppender{rec: domain.Record{ID: "r1"}}
	p := pipeline.NewPublisher(app, discardLogger(),
		pipeline.WithMirror(&mockMirror{err: errors.New("broker down")}),
		pipeline.WithPublisherMetrics(metrics),
	)

	pkg := domain.NewDataPackage("Amsterdam")
	res := p.Act(context.Background(), &pkg)

	assert.Equal(t, pipeline.StatusSuccess, res.Status)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MirrorFailures), 0.0001)
}

func TestPublisher_Act_WritesPackageToStore(t *testing.T) {
	freezeClock(t)
	st := store.New(filepath.Join(t.TempDir(), "data", "alerts.json"), discardLogger())
	p := pipeline.NewPublisher(st, discardLogger())

	pkg := domain.NewDataPackage("Amsterdam")
	pkg.RawWeather = sampleWeather()
	res := p.Act(context.Background(), &pkg)
	require.Equal(t, pipeline.StatusSuccess, res.Status)

	recent, err := st.FetchRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, res.RecordID, recent[0].ID)
	assert.Equal(t, "Amsterdam", recent[0].MonitoringLocation())

	want, err := json.Marshal(pkg)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(recent[0].Payload))
}

// --- runner ---

func TestRunner_RunCycle_HappyPath(t *testing.T) {
	freezeClock(t)
	metrics := observability.NewMetricsForTesting()
	st := store.New(filepath.Join(t.TempDir(), "data", "alerts.json"), discardLogger())
	sensor := pipeline.NewSensor(&mockWeather{data: sampleWeather()}, &mockIncidents{data: sampleIncidents()}, discardLogger())
	publisher := pipeline.NewPublisher(st, discardLogger())
	r := pipeline.New(sensor, publisher, discardLogger(), metrics)

	res := r.RunCycle(context.Background(), "Amsterdam")

	assert.False(t, res.Aborted)
	assert.Equal(t, "Amsterdam", res.Location)
	_, err := uuid.Parse(res.CycleID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSuccess, res.Publish.Status)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CyclesTotal.WithLabelValues("success")), 0.0001)

	recent, err := st.FetchRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, res.Publish.RecordID, recent[0].ID)
}

func TestRunner_RunCycle_EmptyPackageAborts(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	actor := &mockActor{}
	r := pipeline.New(&mockPerceiver{}, actor, discardLogger(), metrics)

	res := r.RunCycle(context.Background(), "Amsterdam")

	assert.True(t, res.Aborted)
	assert.Zero(t, actor.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CyclesTotal.WithLabelValues("aborted")), 0.0001)
}

func TestRunner_RunCycle_ReportsPublishFailure(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	actor := &mockActor{result: pipeline.Result{Status: pipeline.StatusFailure, Message: "FAILURE: disk full"}}
	pkg := domain.NewDataPackage("Amsterdam")
	r := pipeline.New(&mockPerceiver{pkg: pkg}, actor, discardLogger(), metrics)

	res := r.RunCycle(context.Background(), "Amsterdam")

	assert.False(t, res.Aborted)
	assert.Equal(t, 1, actor.calls)
	assert.Equal(t, pipeline.StatusFailure, res.Publish.Status)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CyclesTotal.WithLabelValues("failure")), 0.0001)
}

func TestRunner_RunCycle_IsStateless(t *testing.T) {
	actor := &mockActor{result: pipeline.Result{Status: pipeline.StatusSuccess}}
	r := pipeline.New(&mockPerceiver{pkg: domain.NewDataPackage("X")}, actor, discardLogger(), nil)

	first := r.RunCycle(context.Background(), "X")
	second := r.RunCycle(context.Background(), "X")

	assert.NotEqual(t, first.CycleID, second.CycleID)
	assert.Equal(t, 2, actor.calls)
}
