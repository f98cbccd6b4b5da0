package shell

import (
	"fmt"
	"text/tabwriter"

	"github.com/meucrm/crmdesk/internal/client/view"
	"github.com/meucrm/crmdesk/internal/models"
)

// render prints the current screen.
func (s *Shell) render() {
	st := s.ctrl.Snapshot()
	switch st.Screen {
	case view.ScreenLogin:
		fmt.Fprintln(s.out, "Not logged in. Type 'login' to sign in.")
	case view.ScreenDashboard:
		s.renderDashboard(st.Stats)
	case view.ScreenCustomers:
		s.renderCustomers(st.Customers)
	case view.ScreenSales:
		s.renderSales(st.Sales)
	case view.ScreenReports:
		fmt.Fprintln(s.out, "Reports: nothing to show yet.")
	}
	if st.Notice != "" {
		fmt.Fprintf(s.out, "! %s\n", st.Notice)
	}
}

func (s *Shell) renderDashboard(stats *models.DashboardStats) {
	fmt.Fprintln(s.out, "Dashboard")
	if stats == nil {
		fmt.Fprintln(s.out, "  (no data)")
		return
	}
	fmt.Fprintf(s.out, "  Customers:         %d\n", stats.TotalClientes)
	fmt.Fprintf(s.out, "  Sales this month:  %.2f\n", stats.VendasMes)
	fmt.Fprintf(s.out, "  New leads:         %d\n", stats.NovosLeads)
}

func (s *Shell) renderCustomers(list []models.Customer) {
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No customers.")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tE-MAIL\tPHONE\tSTATUS")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, c.Status)
	}
	_ = tw.Flush()
}

func (s *Shell) renderSales(list []models.Sale) {
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No sales.")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tAMOUNT\tDATE\tDESCRIPTION")
	for _, sale := range list {
		date := ""
		if !sale.Date.IsZero() {
			date = sale.Date.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", sale.ID, sale.CustomerID, sale.Amount, date, sale.Description)
	}
	_ = tw.Flush()
}
