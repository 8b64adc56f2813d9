package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/studybot/internal/domain"
)

// JSONScheduleRepo implements ScheduleRepo on a single JSON array file.
// All access goes through one mutex; writes replace the file atomically.
type JSONScheduleRepo struct {
	path string
	log  *logrus.Entry
	mu   sync.Mutex
}

// NewJSONScheduleRepo creates a store backed by the file at path.
func NewJSONScheduleRepo(path string, log *logrus.Entry) *JSONScheduleRepo {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &JSONScheduleRepo{
		path: path,
		log:  log.WithField("component", "schedule_store"),
	}
}

// Path returns the backing file path.
func (r *JSONScheduleRepo) Path() string {
	return r.path
}

func (r *JSONScheduleRepo) Load(ctx context.Context) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(ctx)
}

func (r *JSONScheduleRepo) Save(ctx context.Context, events []domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, events)
}

func (r *JSONScheduleRepo) Mutate(ctx context.Context, fn MutateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.read(ctx)
	if err != nil {
		return err
	}
	next, err := fn(events)
	if err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	return r.write(ctx, next)
}

func (r *JSONScheduleRepo) read(ctx context.Context) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := r.write(ctx, nil); err != nil {
				return nil, fmt.Errorf("creating schedule file: %w", err)
			}
			return []domain.Event{}, nil
		}
		return nil, fmt.Errorf("reading schedule file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		r.log.Warn("schedule file is empty, starting from an empty schedule")
		return []domain.Event{}, nil
	}

	var records []eventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		r.log.WithError(err).Warn("schedule file is not valid JSON, starting from an empty schedule")
		return []domain.Event{}, nil
	}

	events := make([]domain.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, fromRecord(rec))
	}
	return events, nil
}

func (r *JSONScheduleRepo) write(ctx context.Context, events []domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]eventRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, toRecord(ev))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding schedule: %w", err)
	}

	if err := writeFileAtomic(r.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing schedule file: %w", err)
	}
	r.log.WithField("events", len(records)).Debug("schedule saved")
	return nil
}
