// Package view owns the application view state and turns UI events into
// state transitions and API calls.
package view

import (
	"errors"
	"slices"
	"strings"

	"github.com/meucrm/crmdesk/internal/models"
)

var (
	// ErrUnknownScreen is returned for a screen name that does not exist.
	ErrUnknownScreen = errors.New("unknown screen")
	// ErrNoSession is returned when a screen other than login is requested
	// without a session.
	ErrNoSession = errors.New("not logged in")
	// ErrCancelled is returned when the caller did not confirm an action.
	ErrCancelled = errors.New("cancelled")
	// ErrHydration wraps a failed screen refresh.
	ErrHydration = errors.New("could not load data")
	// ErrEmptyPatch is returned by EditCustomer when nothing would change.
	ErrEmptyPatch = errors.New("nothing to update")
)

// Screen is one of the mutually exclusive top-level views.
type Screen string

const (
	ScreenLogin     Screen = "login"
	ScreenDashboard Screen = "dashboard"
	ScreenCustomers Screen = "customers"
	ScreenSales     Screen = "sales"
	ScreenReports   Screen = "reports"
)

// Screens lists every screen in menu order.
var Screens = []Screen{ScreenLogin, ScreenDashboard, ScreenCustomers, ScreenSales, ScreenReports}

// ParseScreen maps a name typed by the user to a Screen.
func ParseScreen(name string) (Screen, error) {
	s := Screen(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Screens, s) {
		return "", ErrUnknownScreen
	}
	return s, nil
}

// State is the application view state. Renderers receive copies from
// Controller.Snapshot.
type State struct {
	Screen Screen
	// User is nil while logged out.
	User      *models.User
	Customers []models.Customer
	Stats     *models.DashboardStats
	Sales     []models.Sale
	// Notice is a user-facing message, e.g. a failed load of the current screen.
	Notice string
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Stats != nil {
		st := *s.Stats
		out.Stats = &st
	}
	out.Customers = slices.Clone(s.Customers)
	out.Sales = slices.Clone(s.Sales)
	return out
}

// failureNotice is the generic message shown when a screen could not load.
func failureNotice(s Screen) string {
	switch s {
	case ScreenDashboard:
		return "Could not load the dashboard."
	case ScreenCustomers:
		return "Could not load customers."
	case ScreenSales:
		return "Could not load sales."
	}
	return "Could not load data."
}

// matches reports whether c's name or e-mail contains term, ignoring case.
// term must already be lower-cased.
func matches(c models.Customer, term string) bool {
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Email), term)
}
