package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	Log *logrus.Entry
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Log.WithFields(logrus.Fields{
		"date":    n.Date,
		"fire_at": n.FireAt.Format("2006-01-02 15:04"),
	}).Info(n.Text)
	return nil
}
