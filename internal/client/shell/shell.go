// Package shell is the interactive front end of the CRM client: a
// read-eval-print loop over the view controller's command table.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/meucrm/crmdesk/internal/client/api"
	"github.com/meucrm/crmdesk/internal/client/view"
	"github.com/meucrm/crmdesk/internal/models"
	"go.uber.org/zap"
)

// Options configures a Shell.
type Options struct {
	Version   string
	BuildDate string
	// AutoRefresh re-runs the current screen's hydration while idle. Zero disables it.
	AutoRefresh time.Duration
	Logger      *zap.Logger
}

// Shell reads commands from an input stream and renders the view state.
type Shell struct {
	ctrl *view.Controller
	in   *input
	out  io.Writer
	log  *zap.Logger
	opts Options
}

// rendered lists the commands after which the current screen is printed.
var rendered = map[string]bool{
	"go":        true,
	"dashboard": true,
	"customers": true,
	"sales":     true,
	"reports":   true,
	"sync":      true,
	"login":     true,
}

// New returns a Shell that drives ctrl. It registers the interactive
// commands on the controller and subscribes to session invalidation.
func New(ctrl *view.Controller, in io.Reader, out io.Writer, opts Options) *Shell {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Shell{
		ctrl: ctrl,
		in:   newInput(in),
		out:  out,
		log:  opts.Logger,
		opts: opts,
	}

	ctrl.Handle("help", s.help)
	ctrl.Handle("login", s.login)
	ctrl.Handle("logout", s.logout)
	ctrl.Handle("search", s.search)
	ctrl.Handle("add", s.addCustomer)
	ctrl.Handle("edit", s.editCustomer)
	ctrl.Handle("delete", s.deleteCustomer)
	ctrl.Handle("sale", s.recordSale)
	ctrl.Handle("whoami", s.whoami)
	ctrl.Handle("version", s.version)

	ctrl.OnSessionInvalidated(s.sessionInvalidated)
	return s
}

// Run bootstraps the session and processes commands until exit, end of
// input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	defer s.in.close()

	s.ctrl.Bootstrap(ctx)
	s.render()

	var tick <-chan time.Time
	if s.opts.AutoRefresh > 0 {
		t := time.NewTicker(s.opts.AutoRefresh)
		defer t.Stop()
		tick = t.C
	}

	prompted := false
	for {
		if !prompted {
			fmt.Fprint(s.out, s.prompt())
			prompted = true
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case <-tick:
			s.autoRefresh(ctx)
		case line, ok := <-s.in.request():
			s.in.received(ok)
			prompted = false
			if !ok {
				fmt.Fprintln(s.out)
				return nil
			}
			if s.handle(ctx, line) {
				fmt.Fprintln(s.out, "Bye!")
				return nil
			}
		}
	}
}

// Exec bootstraps the session and runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	defer s.in.close()
	s.ctrl.Bootstrap(ctx)

	cmd, ok := view.ParseCommand(line)
	if !ok {
		return nil
	}
	return s.ctrl.Dispatch(ctx, cmd)
}

// handle runs one input line and reports whether the shell should exit.
func (s *Shell) handle(ctx context.Context, line string) bool {
	cmd, ok := view.ParseCommand(line)
	if !ok {
		return false
	}
	if cmd.Name == "exit" || cmd.Name == "quit" {
		return true
	}

	err := s.ctrl.Dispatch(ctx, cmd)
	var authErr *api.AuthenticationError
	switch {
	case err == nil:
		if rendered[cmd.Name] {
			s.render()
		}
	case errors.As(err, &authErr) && authErr.SessionDropped:
		// already reported by sessionInvalidated
	case errors.Is(err, view.ErrCancelled):
		fmt.Fprintln(s.out, "Cancelled.")
	case errors.Is(err, view.ErrHydration):
		fmt.Fprintln(s.out, "Sync failed.")
		s.render()
	case errors.Is(err, view.ErrUnknownCommand):
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help')\n", cmd.Name)
	default:
		s.log.Debug("command failed", zap.String("command", cmd.Name), zap.Error(err))
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return false
}

func (s *Shell) prompt() string {
	st := s.ctrl.Snapshot()
	if st.User == nil {
		return "crm> "
	}
	return fmt.Sprintf("crm:%s> ", st.Screen)
}

func (s *Shell) autoRefresh(ctx context.Context) {
	if s.ctrl.Snapshot().User == nil {
		return
	}
	if err := s.ctrl.RefreshCurrentScreen(ctx); err != nil {
		s.log.Warn("auto refresh failed", zap.Error(err))
	}
}

// sessionInvalidated runs after the controller dropped the session.
func (s *Shell) sessionInvalidated(reason error) {
	if reason != nil {
		fmt.Fprintf(s.out, "%v\n", reason)
	} else {
		fmt.Fprintln(s.out, "Logged out.")
	}
	s.ctrl.Bootstrap(context.Background())
}

func (s *Shell) requireSession() error {
	if s.ctrl.Snapshot().User == nil {
		return view.ErrNoSession
	}
	return nil
}

func (s *Shell) help(_ context.Context, _ []string) error {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  login [email]        sign in")
	fmt.Fprintln(s.out, "  logout               sign out")
	fmt.Fprintln(s.out, "  go <screen>          switch screen (dashboard, customers, sales, reports)")
	fmt.Fprintln(s.out, "  sync                 reload the current screen")
	fmt.Fprintln(s.out, "  search <term>        filter customers by name or e-mail")
	fmt.Fprintln(s.out, "  add                  create a customer")
	fmt.Fprintln(s.out, "  edit <id>            change a customer")
	fmt.Fprintln(s.out, "  delete <id>          delete a customer")
	fmt.Fprintln(s.out, "  sale                 record a sale")
	fmt.Fprintln(s.out, "  whoami, version, help, exit")
	return nil
}

func (s *Shell) login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = s.ask(ctx, "E-mail: "); err != nil {
			return err
		}
	}
	password, err := s.askPassword(ctx, "Password: ")
	if err != nil {
		return err
	}
	if err := s.ctrl.SubmitLogin(ctx, email, password); err != nil {
		return err
	}
	if u := s.ctrl.Snapshot().User; u != nil {
		fmt.Fprintf(s.out, "Welcome, %s.\n", u.Name)
	}
	return nil
}

func (s *Shell) logout(ctx context.Context, _ []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if !s.confirm(ctx, "Log out?") {
		return view.ErrCancelled
	}
	return s.ctrl.Logout()
}

func (s *Shell) search(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if s.ctrl.Snapshot().Screen != view.ScreenCustomers {
		if err := s.ctrl.Navigate(ctx, view.ScreenCustomers); err != nil {
			return err
		}
	}
	found := s.ctrl.FilterCustomers(strings.Join(args, " "))
	s.renderCustomers(found)
	return nil
}

func (s *Shell) addCustomer(ctx context.Context, _ []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	var in models.Customer
	var err error
	if in.Name, err = s.ask(ctx, "Name: "); err != nil {
		return err
	}
	if in.Email, err = s.ask(ctx, "E-mail: "); err != nil {
		return err
	}
	if in.Phone, err = s.ask(ctx, "Phone (optional): "); err != nil {
		return err
	}
	status, err := s.ask(ctx, "Status [lead]: ")
	if err != nil {
		return err
	}
	if status != "" {
		in.Status = models.CustomerStatus(strings.ToLower(status))
		if !in.Status.Valid() {
			return fmt.Errorf("invalid status %q", status)
		}
	}
	if in.Name == "" || in.Email == "" {
		return errors.New("name and e-mail are required")
	}

	out, err := s.ctrl.AddCustomer(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Customer %s created.\n", out.ID)
	return nil
}

func (s *Shell) editCustomer(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: edit <id>")
	}
	fmt.Fprintln(s.out, "Leave a field blank to keep it.")

	var patch models.CustomerPatch
	fields := []struct {
		prompt string
		set    func(string) error
	}{
		{"Name: ", func(v string) error { patch.Name = &v; return nil }},
		{"E-mail: ", func(v string) error { patch.Email = &v; return nil }},
		{"Phone: ", func(v string) error { patch.Phone = &v; return nil }},
		{"Status: ", func(v string) error {
			st := models.CustomerStatus(strings.ToLower(v))
			if !st.Valid() {
				return fmt.Errorf("invalid status %q", v)
			}
			patch.Status = &st
			return nil
		}},
	}
	for _, f := range fields {
		v, err := s.ask(ctx, f.prompt)
		if err != nil {
			return err
		}
		if v == "" {
			continue
		}
		if err := f.set(v); err != nil {
			return err
		}
	}

	out, err := s.ctrl.EditCustomer(ctx, args[0], patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Customer %s updated.\n", out.ID)
	return nil
}

func (s *Shell) deleteCustomer(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: delete <id>")
	}
	id := args[0]
	err := s.ctrl.RemoveCustomer(ctx, id, func() bool {
		return s.confirm(ctx, fmt.Sprintf("Delete customer %s?", id))
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Customer %s deleted.\n", id)
	return nil
}

func (s *Shell) recordSale(ctx context.Context, _ []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	customerID, err := s.ask(ctx, "Customer ID: ")
	if err != nil {
		return err
	}
	rawAmount, err := s.ask(ctx, "Amount: ")
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(rawAmount, ",", "."), 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount %q", rawAmount)
	}
	desc, err := s.ask(ctx, "Description (optional): ")
	if err != nil {
		return err
	}
	if customerID == "" {
		return errors.New("customer ID is required")
	}

	out, err := s.ctrl.RecordSale(ctx, models.Sale{
		CustomerID:  customerID,
		Amount:      amount,
		Description: desc,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Sale %s recorded.\n", out.ID)
	return nil
}

func (s *Shell) whoami(_ context.Context, _ []string) error {
	u := s.ctrl.Snapshot().User
	if u == nil {
		fmt.Fprintln(s.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(s.out, "%s <%s>\n", u.Name, u.Email)
	return nil
}

func (s *Shell) version(_ context.Context, _ []string) error {
	fmt.Fprintf(s.out, "crm %s (built %s)\n", orNA(s.opts.Version), orNA(s.opts.BuildDate))
	return nil
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
