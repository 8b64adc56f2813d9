package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/studybot/internal/cli/formatter"
	"github.com/alexanderramin/studybot/internal/notify"
)

// stdinChannel is the chat channel used by serve --stdin.
const stdinChannel = "stdin"

func newServeCmd(app *App) *cobra.Command {
	var stdin bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder scheduler in the foreground",
		Long: `Re-arm saved reminders, deliver them when they fire (also printing them
here) and periodically pick up reminders added by other studybot processes. With --stdin, each
input line is also answered as a chat message and serve stops at the end
of input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app, cmd.InOrStdin(), cmd.OutOrStdout(), stdin)
		},
	}
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Answer chat messages read from standard input")
	return cmd
}

func serve(ctx context.Context, app *App, in io.Reader, out io.Writer, chatStdin bool) error {
	if app.Jobs == nil {
		return fmt.Errorf("job runner is not configured")
	}
	out = &lockedWriter{w: out}
	fmt.Fprintln(out, formatter.Dim("studybot is running. Press Ctrl+C to stop."))

	if app.Shell != nil {
		detach := app.Shell.Attach(notify.NewWriterNotifier(out))
		defer detach()
	}
	if err := startJobs(ctx, app); err != nil {
		return err
	}
	defer app.Jobs.Stop()

	if app.Config != nil && app.Config.ResyncCron != "" && app.Reminders != nil {
		err := app.Jobs.Every(app.Config.ResyncCron, func() {
			n, err := app.Reminders.Restore(ctx)
			if err != nil {
				if app.Log != nil {
					app.Log.WithError(err).Warn("reminder resync failed")
				}
				return
			}
			if n > 0 && app.Log != nil {
				app.Log.WithField("armed", n).Info("picked up new reminders")
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling reminder resync: %w", err)
		}
	}

	if chatStdin && app.Router != nil {
		done := make(chan struct{})
		go func() {
			defer close(done)
			chatLines(ctx, app, in, out)
		}()
		select {
		case <-ctx.Done():
		case <-done:
		}
		return nil
	}

	<-ctx.Done()
	return nil
}

// chatLines answers every non-empty line of in until EOF or cancellation.
func chatLines(ctx context.Context, app *App, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		reply := app.Router.Handle(ctx, stdinChannel, text)
		fmt.Fprintln(out, reply.Text)
	}
	if err := scanner.Err(); err != nil && app.Log != nil {
		app.Log.WithError(err).Warn("reading chat input")
	}
}

// lockedWriter serializes chat replies and reminder lines fired from the
// job goroutine. fmt.Fprintln issues one Write per line.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
