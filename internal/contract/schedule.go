package contract

import "github.com/alexanderramin/studybot/internal/domain"

type GenerateRequest struct {
	// ContentsPath overrides the configured outline file when set.
	ContentsPath string
	Days         []string
	StartTime    string
	Weeks        int
	// Replace discards the existing schedule instead of appending to it.
	Replace bool
}

type GenerateResponse struct {
	Events     []domain.Event
	TopicCount int
	Message    string
}

type UpdateRequest struct {
	Date    string
	Task    string
	NewDate string
	NewTime string
}

// UpdateOutcome tells which kind of change an update made.
type UpdateOutcome string

const (
	// OutcomeMoved: the task left Date for a different NewDate.
	OutcomeMoved UpdateOutcome = "moved"
	// OutcomeRescheduled: the task stayed on Date, only the start time changed.
	OutcomeRescheduled UpdateOutcome = "rescheduled"
	// OutcomeAdded: the task was not on Date and was added to the target.
	OutcomeAdded UpdateOutcome = "added"
)

type UpdateResult struct {
	Outcome    UpdateOutcome
	TargetDate string
	StartTime  string
	// Duplicate is set when the target already held the task.
	Duplicate bool
	Message   string
}

type DeleteRequest struct {
	Date string
	Task string
	All  bool
}

type DeleteResult struct {
	Found   bool
	Removed int
	Message string
}

type ProgressRequest struct {
	Date string
	Task string
}

type ProgressResult struct {
	Found    bool
	Changed  bool
	Progress float64
	Message  string
}

// ProgressOverview holds completion ratios across the whole schedule and for today.
type ProgressOverview struct {
	Empty        bool
	Today        string
	OverallDone  int
	OverallTotal int
	OverallPct   float64
	TodayDone    int
	TodayTotal   int
	TodayPct     float64
}
