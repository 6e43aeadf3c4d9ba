package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestDeadline_AbsoluteFormats(t *testing.T) {
	cases := []struct {
		name string
		text string
		want time.Time
	}{
		{"rfc3339 utc", "2024-05-12T20:00:00Z", time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-05-12T22:00:00+02:00", time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC)},
		{"iso no offset treated as utc", "2024-05-12T20:00:00", time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC)},
		{"space separated", "2024-05-12 20:00", time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC)},
		{"space separated seconds", "2024-05-12 20:00:30", time.Date(2024, 5, 12, 20, 0, 30, 0, time.UTC)},
		{"date only", "2024-05-12", time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)},
		{"slash day first", "12/05/2024 20:00", time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC)},
		{"month name", "May 12, 2024 20:00", time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC)},
		{"day month name", "12 May 2024", time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Deadline(tc.text, anchor)
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %s, want %s", got, tc.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestDeadline_ISOBeatsDayFirst(t *testing.T) {
	// 2024-05-12 must stay May 12 even though a day-first reading exists
	// for other formats; list order is the tie-break.
	got := Deadline("2024-05-12", anchor)
	require.NotNil(t, got)
	assert.Equal(t, time.Month(5), got.Month())
	assert.Equal(t, 12, got.Day())
}

func TestDeadline_FuzzyExtraction(t *testing.T) {
	got := Deadline("Draw ends 2024-05-12 20:00 sharp!", anchor)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC), got.UTC())

	got = Deadline("Closes on 12 May 2024, don't miss out", anchor)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), got.UTC())
}

func TestDeadline_RelativeCountdown(t *testing.T) {
	got := Deadline("Ends in 2 days 3 hours", anchor)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 5, 3, 3, 0, 0, 0, time.UTC), got.UTC())

	got = Deadline("4h 30m remaining", anchor)
	require.NotNil(t, got)
	assert.Equal(t, anchor.Add(4*time.Hour+30*time.Minute), got.UTC())

	got = Deadline("1 day, 2 hours, 3 minutes, 4 seconds", anchor)
	require.NotNil(t, got)
	assert.Equal(t, anchor.Add(26*time.Hour+3*time.Minute+4*time.Second), got.UTC())
}

func TestDeadline_NoMatch(t *testing.T) {
	assert.Nil(t, Deadline("", anchor))
	assert.Nil(t, Deadline("   ", anchor))
	assert.Nil(t, Deadline("ends soon", anchor))
	// Components all absent is "no match", not a zero-duration deadline.
	assert.Nil(t, Deadline("days and hours to go", anchor))
}

func TestDeadline_AbsoluteWinsOverRelative(t *testing.T) {
	// A parseable absolute date must not fall through to countdown logic.
	got := Deadline("2024-05-12", anchor)
	require.NotNil(t, got)
	assert.NotEqual(t, anchor, got.UTC())
	assert.Equal(t, 2024, got.Year())
}
