package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pi-generator/internal/delivery"
	"github.com/xenking/pi-generator/internal/domain/order"
	"github.com/xenking/pi-generator/internal/orderfile"
	"github.com/xenking/pi-generator/pkg/health"
)

// Prompt is printed before every command.
const Prompt = "pi> "

// Reporter reports the readiness of the document service.
type Reporter interface {
	Report() []health.Status
}

// REPL is a line-oriented command loop over a Session.
type REPL struct {
	sess     *Session
	out      io.Writer
	reporter Reporter
	now      func() time.Time
}

// NewREPL creates a REPL writing to out. reporter may be nil.
func NewREPL(sess *Session, out io.Writer, reporter Reporter) *REPL {
	return &REPL{
		sess:     sess,
		out:      out,
		reporter: reporter,
		now:      time.Now,
	}
}

const helpText = `Commands:
  login <username> <password>      unlock the order commands
  logout                           lock the session
  set <field> [value]              set a header, tax or email field
  item add                         append a line item (max 10)
  item rm <row>                    remove a line item (the last one stays)
  item set <row> <field> [value]   set a line item field
  load <file.yaml>                 replace the order with a YAML order file
  show                             show the order, amounts and totals
  download                         generate and save the document
  email                            generate and email the document
  status                           show the last result and service readiness
  reset                            start a new order
  help                             show this help
  quit                             leave
`

// Run reads commands from in until EOF, quit or ctx is done. Command errors
// are printed and do not stop the loop.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- sc.Err()
	}()

	fmt.Fprintln(r.out, `PI GENERATOR. Type "help" for commands.`)
	for {
		fmt.Fprint(r.out, Prompt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				if err := <-readErr; err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return ctxErr
					}
					return errors.Wrap(err, "read input")
				}
				return nil
			}
			quit, err := r.Exec(ctx, line)
			if err != nil {
				fmt.Fprintf(r.out, "Error: %s\n", ErrorMessage(err))
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs a single command line. It reports whether the loop should stop.
func (r *REPL) Exec(ctx context.Context, line string) (quit bool, _ error) {
	cmd, rest := cutWord(line)
	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		_, err := io.WriteString(r.out, helpText)
		return false, err
	case "login":
		return false, r.login(rest)
	case "logout":
		r.sess.Logout()
		fmt.Fprintln(r.out, "Logged out.")
		return false, nil
	case "set":
		return false, r.set(rest)
	case "item":
		return false, r.item(rest)
	case "load":
		return false, r.load(rest)
	case "show":
		if !r.sess.LoggedIn() {
			return false, ErrLocked
		}
		return false, RenderOrder(r.out, r.sess.Record())
	case "download":
		return false, r.deliver(ctx, r.sess.Download)
	case "email":
		return false, r.deliver(ctx, r.sess.Email)
	case "status":
		return false, r.status()
	case "reset":
		if err := r.sess.Reset(); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "Started a new order.")
		return false, nil
	default:
		return false, errors.Errorf("unknown command %q, type \"help\" for commands", cmd)
	}
}

func (r *REPL) login(args string) error {
	user, pass := cutWord(args)
	if err := r.sess.Login(user, pass); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Logged in.")
	return nil
}

func (r *REPL) set(args string) error {
	name, value := cutWord(args)
	if name == "" {
		return errors.Errorf("usage: set <field> [value]; fields: %s", strings.Join(order.FieldNames(), ", "))
	}
	return r.sess.Edit(func(rec *order.Record) error {
		if err := rec.Set(name, value); err != nil {
			return errors.Wrapf(err, "fields: %s", strings.Join(order.FieldNames(), ", "))
		}
		return nil
	})
}

func (r *REPL) item(args string) error {
	sub, rest := cutWord(args)
	switch sub {
	case "add":
		return r.sess.Edit(func(rec *order.Record) error {
			if !rec.AddItem() {
				return errors.Errorf("an order holds at most %d items", order.MaxItems)
			}
			fmt.Fprintf(r.out, "Added row %d.\n", len(rec.Items))
			return nil
		})
	case "rm":
		row, err := parseRow(rest)
		if err != nil {
			return err
		}
		return r.sess.Edit(func(rec *order.Record) error {
			if !rec.RemoveItem(row - 1) {
				if len(rec.Items) <= 1 {
					return errors.New("the last item cannot be removed")
				}
				return errors.Errorf("row %d out of range (1-%d)", row, len(rec.Items))
			}
			return nil
		})
	case "set":
		rowArg, rest := cutWord(rest)
		row, err := parseRow(rowArg)
		if err != nil {
			return err
		}
		name, value := cutWord(rest)
		if name == "" {
			return errors.Errorf("usage: item set <row> <field> [value]; fields: %s", strings.Join(order.ItemFieldNames(), ", "))
		}
		return r.sess.Edit(func(rec *order.Record) error {
			if err := rec.SetItem(row-1, name, value); err != nil {
				return err
			}
			it := rec.Items[row-1]
			fmt.Fprintf(r.out, "Row %d amount: %s\n", row, order.FormatAmount(order.LineAmount(it.Rate, it.Quantity)))
			return nil
		})
	default:
		return errors.New("usage: item add | item rm <row> | item set <row> <field> [value]")
	}
}

func (r *REPL) load(path string) error {
	if path == "" {
		return errors.New("usage: load <file.yaml>")
	}
	if !r.sess.LoggedIn() {
		return ErrLocked
	}
	rec, err := orderfile.Load(path)
	if err != nil {
		return err
	}
	if err := r.sess.Load(rec); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Loaded %d item(s).\n", len(rec.Items))
	return nil
}

func (r *REPL) deliver(ctx context.Context, op func(context.Context) (delivery.Status, error)) error {
	fmt.Fprintln(r.out, "Working...")
	st, err := op(ctx)
	if err != nil {
		return err
	}
	zctx.From(ctx).Debug("Operation finished", zap.Bool("ok", st.OK()))
	RenderStatus(r.out, st)
	return nil
}

func (r *REPL) status() error {
	if r.sess.InFlight() {
		fmt.Fprintln(r.out, "A request is in progress.")
	}
	RenderStatus(r.out, r.sess.Status())
	if r.reporter == nil {
		return nil
	}
	return RenderHealth(r.out, r.reporter.Report(), r.now())
}

func parseRow(s string) (int, error) {
	row, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || row < 1 {
		return 0, errors.Errorf("invalid row %q", s)
	}
	return row, nil
}

// cutWord splits s into its first word and the trimmed remainder.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
