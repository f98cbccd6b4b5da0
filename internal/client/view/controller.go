package view

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/meucrm/crmdesk/internal/models"
	"go.uber.org/zap"
)

// API is the part of the CRM API client the controller drives.
type API interface {
	Restore() (models.Session, bool, error)
	HasSession() bool
	Login(ctx context.Context, email, password string) (models.LoginResponse, error)
	Logout() error
	OnSessionInvalidated(fn func(reason error))

	ListCustomers(ctx context.Context, params url.Values) ([]models.Customer, error)
	CreateCustomer(ctx context.Context, in models.Customer) (models.Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	ListSales(ctx context.Context, params url.Values) ([]models.Sale, error)
	CreateSale(ctx context.Context, in models.Sale) (models.Sale, error)
}

// hydrator fetches the data of one screen. The returned func applies it to
// the state and runs under the controller lock.
type hydrator func(ctx context.Context) (func(*State), error)

// Controller owns the single view state. It is safe for concurrent use;
// API calls are made without holding the state lock.
type Controller struct {
	api API
	log *zap.Logger

	hydrators map[Screen]hydrator
	commands  dispatcher

	mu        sync.Mutex
	state     State
	seq       map[Screen]uint64
	listeners []func(reason error)
}

// New returns a Controller in the login state and subscribes it to the
// session invalidation hook of api.
func New(api API, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		api:   api,
		log:   log,
		state: State{Screen: ScreenLogin},
		seq:   make(map[Screen]uint64),
	}
	c.hydrators = map[Screen]hydrator{
		ScreenDashboard: c.loadDashboard,
		ScreenCustomers: c.loadCustomers,
		ScreenSales:     c.loadSales,
	}
	c.registerNavigation()
	api.OnSessionInvalidated(c.sessionInvalidated)
	return c
}

// Bootstrap reads the persisted session. With a session the dashboard is
// shown and hydrated, otherwise the login screen.
func (c *Controller) Bootstrap(ctx context.Context) {
	sess, ok, err := c.api.Restore()
	if err != nil {
		c.log.Warn("stored session is unreadable, starting logged out", zap.Error(err))
	}

	c.mu.Lock()
	c.resetLocked("")
	if ok {
		c.state.Screen = ScreenDashboard
		if sess.User != nil {
			u := *sess.User
			c.state.User = &u
		}
	}
	c.mu.Unlock()

	if ok {
		_ = c.hydrate(ctx, ScreenDashboard)
	}
}

// Navigate switches to screen and runs its hydration routine, if any.
// A failed hydration is reported through State.Notice, not as an error.
func (c *Controller) Navigate(ctx context.Context, screen Screen) error {
	if !slices.Contains(Screens, screen) {
		return ErrUnknownScreen
	}
	if screen != ScreenLogin && !c.api.HasSession() {
		return ErrNoSession
	}

	c.mu.Lock()
	c.state.Screen = screen
	c.state.Notice = ""
	c.mu.Unlock()

	_ = c.hydrate(ctx, screen)
	return nil
}

// SubmitLogin logs in and moves to the dashboard. On failure the state is
// left as it was and the error is returned for display.
func (c *Controller) SubmitLogin(ctx context.Context, email, password string) error {
	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.resetLocked("")
	user := resp.User
	c.state.User = &user
	c.state.Screen = ScreenDashboard
	c.mu.Unlock()

	_ = c.hydrate(ctx, ScreenDashboard)
	return nil
}

// Logout drops the session. The state is reset by the invalidation hook
// the API client fires.
func (c *Controller) Logout() error {
	return c.api.Logout()
}

// RefreshCurrentScreen re-runs the hydration routine of the active screen.
// The returned error wraps ErrHydration when loading failed.
func (c *Controller) RefreshCurrentScreen(ctx context.Context) error {
	c.mu.Lock()
	screen := c.state.Screen
	c.mu.Unlock()
	return c.hydrate(ctx, screen)
}

// FilterCustomers returns the cached customers whose name or e-mail contains
// term, ignoring case. The cache is not modified and no request is made.
func (c *Controller) FilterCustomers(term string) []models.Customer {
	c.mu.Lock()
	defer c.mu.Unlock()

	term = strings.ToLower(term)
	if term == "" {
		return slices.Clone(c.state.Customers)
	}
	var out []models.Customer
	for _, cust := range c.state.Customers {
		if matches(cust, term) {
			out = append(out, cust)
		}
	}
	return out
}

// RemoveCustomer deletes a customer once confirm returns true, then reloads
// the customer list. On failure the cached list is left untouched.
func (c *Controller) RemoveCustomer(ctx context.Context, id string, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return ErrCancelled
	}
	if err := c.api.DeleteCustomer(ctx, id); err != nil {
		c.log.Error("delete customer failed", zap.String("customer_id", id), zap.Error(err))
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	_ = c.hydrate(ctx, ScreenCustomers)
	return nil
}

// AddCustomer creates a customer and reloads the customer list.
func (c *Controller) AddCustomer(ctx context.Context, in models.Customer) (models.Customer, error) {
	if in.Status == "" {
		in.Status = models.StatusLead
	}
	out, err := c.api.CreateCustomer(ctx, in)
	if err != nil {
		return models.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	_ = c.hydrate(ctx, ScreenCustomers)
	return out, nil
}

// EditCustomer applies patch to a customer and reloads the customer list.
func (c *Controller) EditCustomer(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error) {
	if patch.Empty() {
		return models.Customer{}, ErrEmptyPatch
	}
	out, err := c.api.UpdateCustomer(ctx, id, patch)
	if err != nil {
		return models.Customer{}, fmt.Errorf("update customer %s: %w", id, err)
	}
	_ = c.hydrate(ctx, ScreenCustomers)
	return out, nil
}

// RecordSale books a sale and reloads sales and the dashboard totals.
func (c *Controller) RecordSale(ctx context.Context, in models.Sale) (models.Sale, error) {
	out, err := c.api.CreateSale(ctx, in)
	if err != nil {
		return models.Sale{}, fmt.Errorf("record sale: %w", err)
	}
	_ = c.hydrate(ctx, ScreenSales)
	_ = c.hydrate(ctx, ScreenDashboard)
	return out, nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// OnSessionInvalidated registers fn to run after the controller has reset
// itself to the login screen because the session ended.
func (c *Controller) OnSessionInvalidated(fn func(reason error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Handle registers h under name in the command table, replacing any
// handler already registered for it.
func (c *Controller) Handle(name string, h Handler) {
	c.commands.register(name, h)
}

// Dispatch runs the handler registered for cmd.Name.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	return c.commands.dispatch(ctx, cmd)
}

// Commands returns the registered command names, sorted.
func (c *Controller) Commands() []string {
	return c.commands.names()
}

func (c *Controller) registerNavigation() {
	c.Handle("go", func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: go <%s>", joinScreens())
		}
		screen, err := ParseScreen(args[0])
		if err != nil {
			return err
		}
		return c.Navigate(ctx, screen)
	})
	for _, s := range Screens {
		if s == ScreenLogin {
			continue
		}
		c.Handle(string(s), func(ctx context.Context, _ []string) error {
			return c.Navigate(ctx, s)
		})
	}
	c.Handle("sync", func(ctx context.Context, _ []string) error {
		if !c.api.HasSession() {
			return ErrNoSession
		}
		return c.RefreshCurrentScreen(ctx)
	})
}

// hydrate runs the routine of screen and applies its result, unless a newer
// hydration of the same screen was started or the session was reset meanwhile.
func (c *Controller) hydrate(ctx context.Context, screen Screen) error {
	load, ok := c.hydrators[screen]
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.seq[screen]++
	seq := c.seq[screen]
	c.mu.Unlock()

	apply, err := load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq[screen] != seq {
		c.log.Debug("discarding stale response", zap.String("screen", string(screen)), zap.Uint64("seq", seq))
		return nil
	}
	if err != nil {
		c.log.Error("hydration failed", zap.String("screen", string(screen)), zap.Error(err))
		if c.state.Screen == screen {
			c.state.Notice = failureNotice(screen)
		}
		return fmt.Errorf("%w: %s: %w", ErrHydration, screen, err)
	}
	apply(&c.state)
	if c.state.Screen == screen {
		c.state.Notice = ""
	}
	return nil
}

// resetLocked returns the state to a logged-out login screen and invalidates
// every in-flight hydration.
func (c *Controller) resetLocked(notice string) {
	c.state = State{Screen: ScreenLogin, Notice: notice}
	for _, s := range Screens {
		c.seq[s]++
	}
}

func (c *Controller) sessionInvalidated(reason error) {
	c.mu.Lock()
	notice := ""
	if reason != nil {
		notice = reason.Error()
	}
	c.resetLocked(notice)
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	if reason != nil {
		c.log.Info("session invalidated", zap.Error(reason))
	}
	for _, fn := range listeners {
		fn(reason)
	}
}

func (c *Controller) loadDashboard(ctx context.Context) (func(*State), error) {
	stats, err := c.api.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	return func(s *State) { s.Stats = &stats }, nil
}

func (c *Controller) loadCustomers(ctx context.Context) (func(*State), error) {
	list, err := c.api.ListCustomers(ctx, nil)
	if err != nil {
		return nil, err
	}
	return func(s *State) { s.Customers = list }, nil
}

func (c *Controller) loadSales(ctx context.Context) (func(*State), error) {
	list, err := c.api.ListSales(ctx, nil)
	if err != nil {
		return nil, err
	}
	return func(s *State) { s.Sales = list }, nil
}

func joinScreens() string {
	names := make([]string, 0, len(Screens))
	for _, s := range Screens {
		names = append(names, string(s))
	}
	return strings.Join(names, "|")
}
