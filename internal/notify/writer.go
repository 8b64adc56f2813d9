package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterNotifier prints each notification text as one line on W.
type WriterNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{W: w}
}

func (w *WriterNotifier) Notify(_ context.Context, n Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintln(w.W, n.Text); err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}
