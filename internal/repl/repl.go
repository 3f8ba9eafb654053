// Package repl is a line-based terminal front end for the planner.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/planner"
)

// TurnTimeout bounds one assistant turn or sync.
const TurnTimeout = 2 * time.Minute

const help = `Commands:
  /day [YYYY-MM-DD]   show a day (default: the selected day)
  /next, /prev        move the selected day
  /month [YYYY-MM]    show a month
  /sync               sync the external calendar
  /status             show session status
  /exit               quit
Anything else is sent to the assistant.`

// REPL reads commands and utterances from in and writes to out.
type REPL struct {
	svc      *planner.Service
	in       io.Reader
	out      io.Writer
	selected time.Time
}

// New returns a REPL for svc with today selected.
func New(svc *planner.Service, in io.Reader, out io.Writer) *REPL {
	return &REPL{svc: svc, in: in, out: out, selected: svc.Today()}
}

// Run loops until in is exhausted, /exit is read or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "OptiPlan terminal. Type /help for commands.")
	for _, m := range r.svc.Transcript() {
		fmt.Fprintln(r.out, m.Text)
	}

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if quit := r.handle(ctx, input); quit {
			return nil
		}
	}
}

func (r *REPL) handle(ctx context.Context, input string) (quit bool) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch cmd {
	case "/exit", "/quit":
		return true
	case "/help":
		fmt.Fprintln(r.out, help)
	case "/day":
		err = r.day(ctx, arg)
	case "/next":
		r.selected = r.selected.AddDate(0, 0, 1)
		err = r.day(ctx, "")
	case "/prev":
		r.selected = r.selected.AddDate(0, 0, -1)
		err = r.day(ctx, "")
	case "/month":
		err = r.month(ctx, arg)
	case "/sync":
		err = r.sync(ctx)
	case "/status":
		err = r.status(ctx)
	default:
		err = r.chat(ctx, input)
	}
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
	return false
}

func (r *REPL) day(ctx context.Context, arg string) error {
	if arg != "" {
		d, err := dateutil.ParseDate(arg, r.svc.Location())
		if err != nil {
			return err
		}
		r.selected = d
	}
	view, err := r.svc.Day(ctx, r.selected)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, view.Label)
	if len(view.Events) == 0 {
		fmt.Fprintln(r.out, "  (no events)")
	}
	for _, e := range view.Events {
		fmt.Fprintf(r.out, "  %s  %s [%s]\n", e.TimeRange, e.Title, e.Type)
	}
	return nil
}

func (r *REPL) month(ctx context.Context, arg string) error {
	year, month := r.selected.Year(), r.selected.Month()
	if arg != "" {
		var err error
		if year, month, err = dateutil.ParseMonth(arg); err != nil {
			return err
		}
	}
	view, err := r.svc.Month(ctx, year, month)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, view.Label)
	for _, d := range view.Days {
		if len(d.Events) == 0 {
			continue
		}
		titles := make([]string, len(d.Events))
		for i, e := range d.Events {
			titles[i] = e.Title
		}
		line := fmt.Sprintf("  %2d  %s", d.Day, strings.Join(titles, ", "))
		if d.MoreEvents > 0 {
			line += fmt.Sprintf(" (+%d)", d.MoreEvents)
		}
		fmt.Fprintln(r.out, line)
	}
	return nil
}

func (r *REPL) sync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, TurnTimeout)
	defer cancel()
	res, err := r.svc.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "synced %d external events\n", res.Count)
	return nil
}

func (r *REPL) status(ctx context.Context) error {
	st, err := r.svc.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "provider=%s connected=%t assistant=%t events=%d revision=%d\n",
		st.Provider, st.Connected, st.AssistantConfigured, st.EventCount, st.Revision)
	return nil
}

func (r *REPL) chat(ctx context.Context, input string) error {
	ctx, cancel := context.WithTimeout(ctx, TurnTimeout)
	defer cancel()
	res, err := r.svc.Chat(ctx, input, r.selected)
	if res.Reply.Text != "" {
		fmt.Fprintln(r.out, res.Reply.Text)
	}
	if errors.Is(err, apperr.ErrBridgeUnavailable) {
		// The apology is already printed.
		return nil
	}
	return err
}
