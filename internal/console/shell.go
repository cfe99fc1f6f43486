package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hrconsole/internal/listform"
	"hrconsole/internal/schema"
	hrsdk "hrconsole/sdk/go"
)

const shellHelp = `commands:
  list                  show the current list
  search <term>         filter the list on the server
  clear                 drop the filter
  edit <id>             load a record into the form
  set <key> [value]     change a form field (no value clears it)
  form                  show the form
  options               show the reference choices
  submit                create or update from the form
  cancel                discard the form and return to create mode
  delete <id>           delete a record after confirmation
  quit                  leave the shell`

// Shell is a line-oriented screen over one controller. It reads commands and delete
// confirmations from the same input.
type Shell struct {
	in      *bufio.Scanner
	out     io.Writer
	autoYes bool
	ctrl    *listform.Controller
}

// NewShell reads from in and writes to out. With autoYes every delete is confirmed.
func NewShell(in io.Reader, out io.Writer, autoYes bool) *Shell {
	return &Shell{in: bufio.NewScanner(in), out: out, autoYes: autoYes}
}

// Options returns the controller options that route confirmation and focus through the shell.
func (sh *Shell) Options() []listform.Option {
	return []listform.Option{listform.WithConfirm(sh.Confirm), listform.WithFocus(sh.focus)}
}

// Confirm asks on the shell's input whether rec may be deleted.
func (sh *Shell) Confirm(rec hrsdk.Record) bool {
	if sh.autoYes {
		return true
	}
	var name string
	if sh.ctrl != nil {
		name = Describe(sh.ctrl.Schema(), rec)
	} else {
		name = rec.String("id")
	}
	return ask(sh.in, sh.out, name)
}

func (sh *Shell) focus() {
	if sh.ctrl != nil {
		RenderDraft(sh.out, sh.ctrl.Schema(), sh.ctrl.Snapshot())
	}
}

// Run mounts ctrl and processes commands until quit, end of input or ctx is done.
func (sh *Shell) Run(ctx context.Context, ctrl *listform.Controller) error {
	sh.ctrl = ctrl
	// A mount failure is kept in LastError, which RenderState prints.
	_ = ctrl.Mount(ctx)
	RenderState(sh.out, ctrl.Schema(), ctrl.Snapshot())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sh.prompt()
		if !sh.in.Scan() {
			fmt.Fprintln(sh.out)
			return sh.in.Err()
		}
		line := strings.TrimSpace(sh.in.Text())
		if line == "" {
			continue
		}
		if quit := sh.exec(ctx, line); quit {
			return nil
		}
	}
}

func (sh *Shell) prompt() {
	name := sh.ctrl.Schema().Resource
	if id, ok := sh.ctrl.EditingID(); ok {
		fmt.Fprintf(sh.out, "%s[edit %d]> ", name, id)
		return
	}
	fmt.Fprintf(sh.out, "%s> ", name)
}

func (sh *Shell) exec(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s := sh.ctrl.Schema()
	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "list", "ls", "show":
		RenderState(sh.out, s, sh.ctrl.Snapshot())
	case "search":
		sh.report(sh.ctrl.Search(ctx, rest))
		RenderState(sh.out, s, sh.ctrl.Snapshot())
	case "clear":
		sh.report(sh.ctrl.ClearSearch(ctx))
		RenderState(sh.out, s, sh.ctrl.Snapshot())
	case "edit":
		id, err := parseID(rest)
		if err != nil {
			sh.report(err)
			return false
		}
		rec, ok := findRecord(sh.ctrl.Items(), id)
		if !ok {
			sh.report(fmt.Errorf("%s %d is not in the list", s.Name, id))
			return false
		}
		sh.report(sh.ctrl.StartEdit(rec))
	case "set":
		key, value, _ := strings.Cut(rest, " ")
		if key == "" {
			sh.report(fmt.Errorf("usage: set <key> [value]"))
			return false
		}
		sh.report(sh.ctrl.ChangeField(key, strings.TrimSpace(value)))
	case "form":
		RenderDraft(sh.out, s, sh.ctrl.Snapshot())
	case "options":
		RenderOptions(sh.out, sh.ctrl.Options())
	case "submit", "save":
		if missing := s.MissingRequired(sh.ctrl.Draft()); len(missing) > 0 {
			sh.report(fmt.Errorf("required: %s", strings.Join(missing, ", ")))
			return false
		}
		if err := sh.ctrl.Submit(ctx); err != nil {
			sh.report(err)
			return false
		}
		fmt.Fprintln(sh.out, "saved")
		RenderState(sh.out, s, sh.ctrl.Snapshot())
	case "cancel", "new":
		sh.ctrl.CancelEdit()
		fmt.Fprintln(sh.out, "form reset")
	case "delete", "rm":
		id, err := parseID(rest)
		if err != nil {
			sh.report(err)
			return false
		}
		removed, err := sh.ctrl.Remove(ctx, id)
		if err != nil {
			sh.report(err)
			return false
		}
		if removed {
			fmt.Fprintf(sh.out, "deleted %s %d\n", s.Name, id)
		} else {
			fmt.Fprintln(sh.out, "kept")
		}
	default:
		fmt.Fprintf(sh.out, "unknown command %q; type help\n", cmd)
	}
	return false
}

func (sh *Shell) report(err error) {
	if err != nil {
		fmt.Fprintf(sh.out, "error: %s\n", err)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected a record id, got %q", s)
	}
	return id, nil
}

func findRecord(items []hrsdk.Record, id int64) (hrsdk.Record, bool) {
	for _, r := range items {
		if rid, ok := r.ID(); ok && rid == id {
			return r, true
		}
	}
	return nil, false
}

// Describe names rec by its schema and first non-empty list column.
func Describe(s *schema.Schema, rec hrsdk.Record) string {
	id := rec.String("id")
	for _, col := range s.Columns {
		if v := rec.String(col); v != "" {
			return fmt.Sprintf("%s %s (%s)", s.Name, id, v)
		}
	}
	return s.Name + " " + id
}

// Prompt returns a confirmation that asks on in and out. Anything but y or yes declines.
func Prompt(s *schema.Schema, in io.Reader, out io.Writer) listform.ConfirmFunc {
	sc := bufio.NewScanner(in)
	return func(rec hrsdk.Record) bool {
		return ask(sc, out, Describe(s, rec))
	}
}

func ask(in *bufio.Scanner, out io.Writer, name string) bool {
	fmt.Fprintf(out, "delete %s? [y/N] ", name)
	if !in.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(in.Text())) {
	case "y", "yes":
		return true
	}
	return false
}
