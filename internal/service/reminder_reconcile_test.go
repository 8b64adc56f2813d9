package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/repository"
	"github.com/alexanderramin/studybot/internal/testutil"
)

// linkedFixture shares one store between the schedule and reminder services
// the way the binary wires them.
type linkedFixture struct {
	schedules ScheduleService
	reminders ReminderService
	store     *repository.JSONScheduleRepo
	jobs      *testutil.FakeJobs
	notifier  *testutil.RecordingNotifier
}

func newLinkedFixture(t *testing.T, topics ...string) linkedFixture {
	t.Helper()
	store := repository.NewJSONScheduleRepo(testutil.SchedulePath(t), testutil.QuietLogger())
	jobs := testutil.NewFakeJobs()
	n := &testutil.RecordingNotifier{}
	outline := ""
	if len(topics) > 0 {
		outline = testutil.WriteOutline(t, topics...)
	}
	opts := []Option{
		WithClock(testutil.FixedClock(testNow)),
		WithLocation(kst),
		WithLogger(testutil.QuietLogger()),
	}
	reminders := NewReminderService(store, jobs, n, opts...)
	schedules := NewScheduleService(store, outline, append(opts, WithReminderCanceller(reminders))...)
	return linkedFixture{schedules: schedules, reminders: reminders, store: store, jobs: jobs, notifier: n}
}

func (fx linkedFixture) armAll(t *testing.T) {
	t.Helper()
	_, err := fx.reminders.ScheduleAll(context.Background(), contract.NewReminderRequest(""))
	require.NoError(t, err)
}

func sentDates(n *testutil.RecordingNotifier) []string {
	var dates []string
	for _, s := range n.Sent() {
		dates = append(dates, s.Date)
	}
	return dates
}

func TestDeleteAll_CancelsArmedReminders(t *testing.T) {
	fx := newLinkedFixture(t)
	seed(t, fx.store,
		testutil.NewTestEvent("2024-03-04", []string{"A"}),
		testutil.NewTestEvent("2024-03-06", []string{"B"}),
	)
	fx.armAll(t)
	require.Len(t, fx.jobs.Pending(), 2)

	_, err := fx.schedules.Delete(context.Background(), contract.DeleteRequest{All: true})
	require.NoError(t, err)

	assert.Empty(t, fx.jobs.Pending())
	fx.jobs.FireAll()
	assert.Empty(t, fx.notifier.Sent())
}

func TestDeleteDate_CancelsOnlyThatReminder(t *testing.T) {
	fx := newLinkedFixture(t)
	seed(t, fx.store,
		testutil.NewTestEvent("2024-03-04", []string{"A"}),
		testutil.NewTestEvent("2024-03-06", []string{"B"}),
	)
	fx.armAll(t)

	_, err := fx.schedules.Delete(context.Background(), contract.DeleteRequest{Date: "2024-03-04"})
	require.NoError(t, err)

	fx.jobs.FireAll()
	assert.Equal(t, []string{"2024-03-06"}, sentDates(fx.notifier))
}

func TestDeleteTask_CancelsWhenEventEmpties(t *testing.T) {
	fx := newLinkedFixture(t)
	seed(t, fx.store,
		testutil.NewTestEvent("2024-03-04", []string{"A"}),
		testutil.NewTestEvent("2024-03-06", []string{"B", "C"}),
	)
	fx.armAll(t)
	ctx := context.Background()

	_, err := fx.schedules.Delete(ctx, contract.DeleteRequest{Date: "2024-03-04", Task: "A"})
	require.NoError(t, err)
	_, err = fx.schedules.Delete(ctx, contract.DeleteRequest{Date: "2024-03-06", Task: "B"})
	require.NoError(t, err)

	// 03-06 still holds C, so its reminder stays.
	require.Len(t, fx.jobs.Pending(), 1)
	fx.jobs.FireAll()
	assert.Equal(t, []string{"2024-03-06"}, sentDates(fx.notifier))
}

func TestUpdateMove_CancelsReminderOfEmptiedEvent(t *testing.T) {
	fx := newLinkedFixture(t)
	seed(t, fx.store, testutil.NewTestEvent("2024-03-04", []string{"A"}))
	fx.armAll(t)

	res, err := fx.schedules.Update(context.Background(), contract.UpdateRequest{
		Date: "2024-03-04", Task: "A", NewDate: "2024-03-05",
	})
	require.NoError(t, err)
	assert.Equal(t, contract.OutcomeMoved, res.Outcome)

	assert.Empty(t, fx.jobs.Pending())
	fx.jobs.FireAll()
	assert.Empty(t, fx.notifier.Sent())
}

func TestCreateReplace_CancelsOldReminders(t *testing.T) {
	fx := newLinkedFixture(t, "T1", "T2")
	seed(t, fx.store, testutil.NewTestEvent("2024-02-29", []string{"Old"}))
	fx.armAll(t)
	require.Len(t, fx.jobs.Pending(), 1)

	_, err := fx.schedules.Create(context.Background(), contract.GenerateRequest{
		Days: []string{"mon"}, StartTime: "19:00", Weeks: 1, Replace: true,
	})
	require.NoError(t, err)
	assert.Empty(t, fx.jobs.Pending())
}

func TestRecordProgress_KeepsReminder(t *testing.T) {
	fx := newLinkedFixture(t)
	seed(t, fx.store, testutil.NewTestEvent("2024-03-04", []string{"A", "B"}))
	fx.armAll(t)

	_, err := fx.schedules.RecordProgress(context.Background(), contract.ProgressRequest{Date: "2024-03-04", Task: "A"})
	require.NoError(t, err)
	assert.Len(t, fx.jobs.Pending(), 1)
}

func TestStaleReminders(t *testing.T) {
	before := []domain.Event{
		testutil.NewTestEvent("2024-03-04", []string{"A"}, testutil.WithReminder("2024-03-04", "18:00")),
		testutil.NewTestEvent("2024-03-05", []string{"B"}, testutil.WithReminder("2024-03-05", "18:00")),
		testutil.NewTestEvent("2024-03-06", []string{"C"}, testutil.WithReminder("2024-03-06", "18:00")),
		testutil.NewTestEvent("2024-03-07", []string{"D"}),
	}
	after := []domain.Event{
		before[0],
		testutil.NewTestEvent("2024-03-05", []string{"B"}, testutil.WithReminder("2024-03-05", "16:00")),
	}
	assert.Equal(t, []string{"2024-03-05", "2024-03-06"}, staleReminders(before, after))
	assert.Empty(t, staleReminders(before, before))
}
