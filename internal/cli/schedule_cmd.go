package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/studybot/internal/cli/formatter"
	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/planner"
)

type createOptions struct {
	days      []string
	startTime string
	weeks     int
	contents  string
	replace   bool
}

func addCreateFlags(fs *pflag.FlagSet, o *createOptions) {
	fs.StringSliceVar(&o.days, "days", nil, "Study days, e.g. mon,wed or 월,수")
	fs.StringVar(&o.startTime, "time", "", "Session start time (HH:MM, 오후 7시, 7pm); defaults to the configured time")
	fs.IntVar(&o.weeks, "weeks", 0, "Number of weeks to plan")
	fs.StringVar(&o.contents, "contents", "", "Outline file with one topic per line; defaults to the configured file")
	fs.BoolVar(&o.replace, "replace", false, "Discard the current schedule instead of adding to it")
}

func newCreateCmd(app *App) *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create [days time weeks]",
		Short: "Generate a study schedule from the topic outline",
		Example: `  studybot create --days mon,wed --time 19:00 --weeks 4
  studybot create 월 수 오후 7시 4주`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := generateRequest(app, args, opts)
			if err != nil {
				return err
			}
			resp, err := app.Schedules.Create(commandContext(cmd), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.StyleGreen.Render(resp.Message))
			if len(resp.Events) > 0 {
				fmt.Fprintln(out, formatter.FormatSchedule(resp.Events, app.now()))
			}
			return nil
		},
	}
	addCreateFlags(cmd.Flags(), &opts)
	return cmd
}

// generateRequest builds a create request from free text, flags, or an
// interactive form, in that order of preference.
func generateRequest(app *App, args []string, o createOptions) (contract.GenerateRequest, error) {
	req := contract.GenerateRequest{
		ContentsPath: o.contents,
		Days:         o.days,
		StartTime:    o.startTime,
		Weeks:        o.weeks,
		Replace:      o.replace,
	}

	switch {
	case len(args) > 0:
		plan, err := planner.ParseInput(strings.Join(args, " "))
		if err != nil {
			return req, err
		}
		req.Days = make([]string, len(plan.Days))
		for i, d := range plan.Days {
			req.Days[i] = strings.ToLower(d.String())
		}
		req.StartTime = plan.StartTime
		req.Weeks = plan.Weeks

	case len(req.Days) == 0 && app.interactive():
		weeks := ""
		if req.StartTime == "" && app.Config != nil {
			req.StartTime = app.Config.DefaultStartTime
		}
		if err := createForm(&req.Days, &req.StartTime, &weeks).Run(); err != nil {
			return req, fmt.Errorf("create form: %w", err)
		}
		req.Weeks, _ = strconv.Atoi(strings.TrimSpace(weeks))

	case len(req.Days) == 0:
		return req, errors.New(`--days and --weeks are required, or pass free text such as "월 수 19:00 4주"`)
	}

	if req.StartTime == "" && app.Config != nil {
		req.StartTime = app.Config.DefaultStartTime
	}
	return req, nil
}

func newViewCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"ls"},
		Short:   "Show the saved schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := app.Schedules.List(commandContext(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if date == "" {
				fmt.Fprintln(out, formatter.FormatSchedule(events, app.now()))
				return nil
			}
			i := domain.FindEvent(events, date)
			if i < 0 {
				fmt.Fprintf(out, "There is no schedule on %s.\n", date)
				return nil
			}
			fmt.Fprint(out, formatter.FormatEventDetail(events[i]))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Show every task of one date (YYYY-MM-DD)")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var newDate, newTime string

	cmd := &cobra.Command{
		Use:   "edit DATE TASK",
		Short: "Move a task to another date or start time",
		Long: `Move TASK from DATE to --to at --at. If TASK is not on DATE it is
added to the target date instead. Leaving --to empty keeps the date.`,
		Example: `  studybot edit 2024-03-04 "01-5 파이썬 둘러보기" --to 2024-03-05 --at 20:00`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Schedules.Update(commandContext(cmd), contract.UpdateRequest{
				Date:    args[0],
				Task:    strings.Join(args[1:], " "),
				NewDate: newDate,
				NewTime: newTime,
			})
			if err != nil {
				return err
			}
			style := formatter.StyleGreen
			if res.Duplicate {
				style = formatter.StyleYellow
			}
			fmt.Fprintln(cmd.OutOrStdout(), style.Render(res.Message))
			return nil
		},
	}
	cmd.Flags().StringVar(&newDate, "to", "", "Target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&newTime, "at", "", "Target start time (HH:MM)")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	var all, yes bool

	cmd := &cobra.Command{
		Use:   "delete [DATE] [TASK]",
		Short: "Delete a task, a whole date, or the entire schedule",
		Example: `  studybot delete 2024-03-04 Arrays
  studybot delete 2024-03-04
  studybot delete --all --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := contract.DeleteRequest{All: all}
			switch {
			case all && len(args) > 0:
				return errors.New("--all takes no arguments")
			case all:
				ok, err := confirmDeleteAll(app, yes)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
					return nil
				}
			case len(args) == 0:
				return errors.New("give a date to delete, or --all")
			default:
				req.Date = args[0]
				req.Task = strings.Join(args[1:], " ")
			}

			res, err := app.Schedules.Delete(commandContext(cmd), req)
			if err != nil {
				return err
			}
			style := formatter.StyleGreen
			if !res.Found {
				style = formatter.StyleYellow
			}
			fmt.Fprintln(cmd.OutOrStdout(), style.Render(res.Message))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete the entire schedule")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation for --all")
	return cmd
}

func confirmDeleteAll(app *App, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !app.interactive() {
		return false, errors.New("refusing to delete the whole schedule without --yes")
	}
	var ok bool
	if err := confirmForm("Delete the whole schedule? This cannot be undone.", &ok).Run(); err != nil {
		return false, fmt.Errorf("confirm form: %w", err)
	}
	return ok, nil
}
