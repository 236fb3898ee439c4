package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LogAnalyzer/internal/models"
)

func TestStatistics(t *testing.T) {
	records := []models.LogRecord{
		{Level: "ERROR"},
		{Level: "critical"},
		{Level: "FATAL"},
		{Level: "WARNING"},
		{Level: "warn"},
		{Level: "INFO"},
		{Level: "DEBUG"},
		{Level: ""},
	}
	s := Statistics(records)
	assert.Equal(t, 3, s.ErrorCount)
	assert.Equal(t, 2, s.WarningCount)
	assert.Equal(t, 3, s.InfoCount)
}

func TestTimeline(t *testing.T) {
	records := []models.LogRecord{
		{Timestamp: "2023-01-15T08:05:00", Level: "ERROR"},
		{Timestamp: "2023-01-15T08:25:00", Level: "INFO"},
		{Timestamp: "2023-01-15T08:59:59", Level: "WARNING"},
		{Timestamp: "2023-01-15T09:00:00", Level: "INFO"},
		{Timestamp: "", Level: "INFO"},
		{Timestamp: "мусор", Level: "ERROR"},
	}
	timeline := Timeline(records)
	require.Len(t, timeline, 2)

	eight := timeline["2023-01-15 08:00:00"]
	assert.Equal(t, 3, eight.Total)
	assert.Equal(t, 1, eight.Errors)
	assert.Equal(t, 1, eight.Warnings)
	assert.Equal(t, 1, eight.Info)

	nine := timeline["2023-01-15 09:00:00"]
	assert.Equal(t, 1, nine.Total)
	assert.Equal(t, 1, nine.Info)
}
