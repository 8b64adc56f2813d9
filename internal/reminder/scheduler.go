// Package reminder runs one-shot reminder jobs and periodic maintenance on a
// cron scheduler.
package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// once fires a single time at At.
type once struct {
	At time.Time
}

func (o once) Next(t time.Time) time.Time {
	if t.Before(o.At) {
		return o.At
	}
	return time.Time{}
}

// Scheduler keys one-shot jobs so the same reminder is never armed twice.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry

	mu      sync.Mutex
	pending map[string]cron.EntryID
}

func NewScheduler(loc *time.Location, log *logrus.Entry) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "reminder_scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{log: log}),
			cron.WithChain(cron.Recover(cronLogger{log: log})),
		),
		log:     log,
		pending: make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// ScheduleOnce registers job to run at at. It returns false when a job with
// the same key is still pending.
func (s *Scheduler) ScheduleOnce(key string, at time.Time, job func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[key]; ok {
		return false
	}

	var id cron.EntryID
	id = s.cron.Schedule(once{At: at}, cron.FuncJob(func() {
		job()
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.pending[key]; ok && cur == id {
			delete(s.pending, key)
			s.cron.Remove(id)
		}
	}))
	s.pending[key] = id
	s.log.WithFields(logrus.Fields{"key": key, "at": at.Format(time.RFC3339)}).Debug("job scheduled")
	return true
}

// Cancel drops a pending job. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.pending[key]
	if !ok {
		return false
	}
	delete(s.pending, key)
	s.cron.Remove(id)
	return true
}

// Every runs fn on a standard five-field cron spec or a descriptor such as "@every 10m".
func (s *Scheduler) Every(spec string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("adding periodic job %q: %w", spec, err)
	}
	return nil
}

// cronLogger routes cron's own logging into logrus.
type cronLogger struct {
	log *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
