package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTaskName(t *testing.T) {
	assert.Equal(t, "topic a", NormalizeTaskName("  Topic A \t"))
	assert.Equal(t, "", NormalizeTaskName("   "))
}

func TestEvent_TaskIdentityIsNormalized(t *testing.T) {
	ev := Event{Tasks: []Task{{Name: "Intro"}, {Name: "Arrays"}}}
	assert.Equal(t, 1, ev.TaskIndex("  arrays "))
	assert.True(t, ev.HasTask("INTRO"))
	assert.False(t, ev.HasTask("Maps"))
}

func TestEvent_AddTask_NoDuplicate(t *testing.T) {
	ev := Event{Tasks: []Task{{Name: "Intro"}}}
	assert.False(t, ev.AddTask(Task{Name: "intro"}))
	assert.True(t, ev.AddTask(Task{Name: "Arrays"}))
	assert.Equal(t, []string{"Intro", "Arrays"}, ev.TaskNames())
}

func TestEvent_RemoveTask(t *testing.T) {
	ev := Event{Tasks: []Task{{Name: "A", Done: true}, {Name: "B"}, {Name: "C"}}}
	ev.RecomputeProgress()

	removed, ok := ev.RemoveTask("b")
	require.True(t, ok)
	assert.Equal(t, "B", removed.Name)
	assert.Equal(t, []string{"A", "C"}, ev.TaskNames())
	assert.InDelta(t, 50.0, ev.Progress, 0.001)

	_, ok = ev.RemoveTask("missing")
	assert.False(t, ok)
}

func TestEvent_CompleteTask_Idempotent(t *testing.T) {
	ev := Event{Tasks: []Task{{Name: "A"}, {Name: "B"}}}

	found, changed := ev.CompleteTask("a")
	assert.True(t, found)
	assert.True(t, changed)
	assert.InDelta(t, 50.0, ev.Progress, 0.001)

	found, changed = ev.CompleteTask("A ")
	assert.True(t, found)
	assert.False(t, changed)
	assert.InDelta(t, 50.0, ev.Progress, 0.001)

	found, _ = ev.CompleteTask("Z")
	assert.False(t, found)
}

func TestPercent_ZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.InDelta(t, 33.333, Percent(1, 3), 0.001)
}

func TestCoalesce_MergesSameDate(t *testing.T) {
	events := []Event{
		{Date: "2024-03-04", StartTime: "19:00", Tasks: []Task{{Name: "A"}}},
		{Date: "2024-03-06", StartTime: "19:00", Tasks: []Task{{Name: "B"}}},
		{Date: "2024-03-04", StartTime: "09:00", Tasks: []Task{{Name: "C", Done: true}, {Name: "a"}},
			ReminderDate: "2024-03-04", ReminderTime: "08:00"},
	}

	out := Coalesce(events)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-03-04", out[0].Date)
	assert.Equal(t, []string{"A", "C"}, out[0].TaskNames())
	assert.Equal(t, "09:00", out[0].StartTime)
	assert.Equal(t, "08:00", out[0].ReminderTime)
	assert.InDelta(t, 50.0, out[0].Progress, 0.001)
	assert.Equal(t, "2024-03-06", out[1].Date)
}

func TestCoalesce_DoesNotAliasInput(t *testing.T) {
	events := []Event{
		{Date: "2024-03-04", Tasks: []Task{{Name: "A"}}},
		{Date: "2024-03-04", Tasks: []Task{{Name: "B"}}},
	}
	out := Coalesce(events)
	require.Len(t, out, 1)
	assert.Len(t, events[0].Tasks, 1)
	assert.Len(t, out[0].Tasks, 2)
}

func TestSortEvents(t *testing.T) {
	events := []Event{
		{Date: "2024-03-06", StartTime: "09:00"},
		{Date: "2024-03-04", StartTime: "19:00"},
		{Date: "2024-03-04", StartTime: "08:00"},
	}
	SortEvents(events)
	assert.Equal(t, "2024-03-04", events[0].Date)
	assert.Equal(t, "08:00", events[0].StartTime)
	assert.Equal(t, "2024-03-06", events[2].Date)
	assert.Equal(t, 2, FindEvent(events, "2024-03-06"))
	assert.Equal(t, -1, FindEvent(events, "2099-01-01"))
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"월":      time.Monday,
		"수요일":    time.Wednesday,
		"일":      time.Sunday,
		"Fri":    time.Friday,
		"sunday": time.Sunday,
	}
	for label, want := range cases {
		got, ok := ParseWeekday(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}

	_, ok := ParseWeekday("someday")
	assert.False(t, ok)
}

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, MondayIndex(time.Monday))
	assert.Equal(t, 6, MondayIndex(time.Sunday))
	assert.Equal(t, "토", KoreanWeekdayLabel(time.Saturday))
	assert.Len(t, KoreanWeekdayLabels(), 7)
}
