package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/studybot/internal/notify"
)

// FakeJobs records one-shot jobs instead of running them on a clock.
type FakeJobs struct {
	mu      sync.Mutex
	jobs    map[string]FakeJob
	every   map[string]func()
	started bool
	stopped bool
}

type FakeJob struct {
	At  time.Time
	Run func()
}

func NewFakeJobs() *FakeJobs {
	return &FakeJobs{jobs: make(map[string]FakeJob), every: make(map[string]func())}
}

func (f *FakeJobs) ScheduleOnce(key string, at time.Time, job func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[key]; ok {
		return false
	}
	f.jobs[key] = FakeJob{At: at, Run: job}
	return true
}

func (f *FakeJobs) Cancel(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[key]; !ok {
		return false
	}
	delete(f.jobs, key)
	return true
}

// Pending returns a copy of the jobs not yet fired.
func (f *FakeJobs) Pending() map[string]FakeJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]FakeJob, len(f.jobs))
	for k, v := range f.jobs {
		out[k] = v
	}
	return out
}

// FireAll runs and forgets every pending job.
func (f *FakeJobs) FireAll() {
	f.mu.Lock()
	jobs := f.jobs
	f.jobs = make(map[string]FakeJob)
	f.mu.Unlock()
	for _, j := range jobs {
		j.Run()
	}
}

func (f *FakeJobs) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
}

func (f *FakeJobs) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// Every records a periodic job under its spec. RunEvery fires it.
func (f *FakeJobs) Every(spec string, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.every[spec] = fn
	return nil
}

// RunEvery runs the periodic job registered for spec and reports whether one was.
func (f *FakeJobs) RunEvery(spec string) bool {
	f.mu.Lock()
	fn, ok := f.every[spec]
	f.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

// Lifecycle reports whether Start and Stop were called.
func (f *FakeJobs) Lifecycle() (started, stopped bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.stopped
}

// RecordingNotifier keeps every notification it receives and returns Err.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	Err  error
}

func (r *RecordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.Err
}

func (r *RecordingNotifier) Sent() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}
