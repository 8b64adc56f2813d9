package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReminderRequest_SetsDefaults(t *testing.T) {
	req := NewReminderRequest("")
	assert.Equal(t, 1, req.HoursBefore)
	assert.Empty(t, req.Date)
}

func TestNewReminderRequest_KeepsDate(t *testing.T) {
	req := NewReminderRequest("2024-03-04")
	assert.Equal(t, "2024-03-04", req.Date)
	assert.Equal(t, DefaultReminderHours, req.HoursBefore)
}

func TestUpdateOutcome_Values(t *testing.T) {
	assert.Equal(t, "moved", string(OutcomeMoved))
	assert.Equal(t, "rescheduled", string(OutcomeRescheduled))
	assert.Equal(t, "added", string(OutcomeAdded))
}
