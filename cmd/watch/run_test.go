package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintAlert_LatestRecord(t *testing.T) {
	var buf bytes.Buffer
	records := []domain.RecentRecord{{
		ID:        "20251028104000123456",
		Timestamp: "2025-10-28 10:40:00",
		Payload:   json.RawMessage(`{"monitoring_location":"Amsterdam","raw_weather":{"temp_c":10}}`),
	}}

	require.NoError(t, printAlert(&buf, records))

	out := buf.String()
	assert.Contains(t, out, "NEIGHBORHOOD WATCH ALERT DISPLAY")
	assert.Contains(t, out, "Retrieved Data Package from ID: 20251028104000123456")
	assert.Contains(t, out, "Published Time: 2025-10-28 10:40:00")
	assert.Contains(t, out, "Monitored Location: Amsterdam")
	assert.Contains(t, out, "    \"raw_weather\": {\n        \"temp_c\": 10\n    }")
}

func TestPrintAlert_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printAlert(&buf, []domain.RecentRecord{}))

	assert.Contains(t, buf.String(), "FAILURE: Could not retrieve data")
	assert.NotContains(t, buf.String(), "RAW DATA PAYLOAD")
}

func TestPrintAlert_MissingLocation(t *testing.T) {
	var buf bytes.Buffer
	records := []domain.RecentRecord{{ID: "N/A", Timestamp: "N/A", Payload: json.RawMessage(`{}`)}}

	require.NoError(t, printAlert(&buf, records))
	assert.Contains(t, buf.String(), "Monitored Location: N/A")
}
