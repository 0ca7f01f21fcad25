package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysUntilPermanentDeletion(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		deletedAt time.Time
		expected  int
	}{
		{"just deleted", now, 15},
		{"deleted an hour ago", now.Add(-time.Hour), 15},
		{"deleted one day ago", now.Add(-24 * time.Hour), 14},
		{"last day", now.Add(-14*24*time.Hour - time.Hour), 1},
		{"window closed exactly", now.Add(-NewsRetentionPeriod), 0},
		{"past the window", now.Add(-16 * 24 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysUntilPermanentDeletion(tt.deletedAt, now))
		})
	}
}

func TestProgramIsSingleDay(t *testing.T) {
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	next := start.Add(24 * time.Hour)

	assert.True(t, Program{Event_Start_Date: &start, Event_End_Date: &start}.IsSingleDay())
	assert.False(t, Program{Event_Start_Date: &start, Event_End_Date: &next}.IsSingleDay())
	assert.False(t, Program{Event_Start_Date: &start}.IsSingleDay())
}

func TestJSONDataDecode(t *testing.T) {
	data, err := NewJSONData(ProgramProposal{Program_ID: 42, Title: "Beach Cleanup", Slug: "beach-cleanup"})
	assert.NoError(t, err)

	var proposal ProgramProposal
	assert.NoError(t, data.Decode(&proposal))
	assert.Equal(t, 42, proposal.Program_ID)

	var empty JSONData
	assert.Error(t, empty.Decode(&proposal))

	value, err := empty.Value()
	assert.NoError(t, err)
	assert.Nil(t, value)
}
