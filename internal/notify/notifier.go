// Package notify delivers reminder notifications to their sinks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Notification is one reminder ready for delivery.
type Notification struct {
	Date   string    `json:"date"`
	FireAt time.Time `json:"fire_at"`
	Text   string    `json:"text"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if target == nil {
			continue
		}
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// History is a sink that keeps the notifications it delivered.
type History interface {
	Recent(ctx context.Context, limit int) ([]Notification, error)
}

// FindHistory returns the first sink in n, searching inside Multi, that
// keeps delivered notifications. It returns nil when there is none.
func FindHistory(n Notifier) History {
	switch t := n.(type) {
	case History:
		return t
	case Multi:
		for _, target := range t {
			if h := FindHistory(target); h != nil {
				return h
			}
		}
	}
	return nil
}

// ReminderText renders the message a user sees when a reminder fires.
func ReminderText(reminderDate, reminderTime, summary string) string {
	return fmt.Sprintf("📅 Reminder: %s %s - %s", reminderDate, reminderTime, summary)
}

// Relay forwards to a target that can be attached and detached at runtime,
// such as an interactive shell. With no target attached, Notify is a no-op.
type Relay struct {
	mu     sync.RWMutex
	target Notifier
}

// Attach sets the target and returns a function that detaches it.
func (r *Relay) Attach(target Notifier) (detach func()) {
	r.mu.Lock()
	r.target = target
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.target = nil
		r.mu.Unlock()
	}
}

func (r *Relay) Notify(ctx context.Context, n Notification) error {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		return nil
	}
	return target.Notify(ctx, n)
}
