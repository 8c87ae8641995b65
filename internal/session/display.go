package session

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/pi-generator/internal/delivery"
	"github.com/xenking/pi-generator/internal/domain/order"
	"github.com/xenking/pi-generator/pkg/health"
)

var headerFields = []struct{ label, name string }{
	{"Receiver", "receiverName"},
	{"Address", "receiverAddress"},
	{"Phone", "receiverPhone"},
	{"Email", "receiverEmail"},
	{"GSTIN", "receiverGstin"},
	{"PO number", "poNumber"},
	{"PO date", "poDate"},
	{"Transport", "transportMode"},
	{"Delivery date", "deliveryDate"},
	{"Destination", "destination"},
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// RenderOrder writes the order with live line amounts, totals and the grand
// total in words.
func RenderOrder(w io.Writer, r *order.Record) error {
	tw := newTable(w)
	for _, f := range headerFields {
		v, _ := r.Get(f.name)
		fmt.Fprintf(tw, "%s\t%s\n", f.label, v)
	}
	fmt.Fprintf(tw, "Tax rates\tCGST %s%%  SGST %s%%  IGST %s%%\n", orZero(r.CGSTRate), orZero(r.SGSTRate), orZero(r.IGSTRate))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	tw = newTable(w)
	fmt.Fprintln(tw, "S.No\tParticulars\tHSN Code\tD.C. No\tRate (Rs.)\tQuantity\tAmount (Rs. Ps.)")
	for i, it := range r.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, it.Particulars, it.HSN, it.DCNo, it.Rate, it.Quantity,
			order.FormatAmount(order.LineAmount(it.Rate, it.Quantity)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	t := order.ComputeTotals(r)
	tw = newTable(w)
	fmt.Fprintf(tw, "Subtotal\t%s\n", order.FormatAmount(t.Subtotal))
	fmt.Fprintf(tw, "CGST\t%s\n", order.FormatAmount(t.CGST))
	fmt.Fprintf(tw, "SGST\t%s\n", order.FormatAmount(t.SGST))
	fmt.Fprintf(tw, "IGST\t%s\n", order.FormatAmount(t.IGST))
	fmt.Fprintf(tw, "Round off\t%s\n", order.FormatAmount(t.RoundOff))
	fmt.Fprintf(tw, "Grand total\t%s\n", order.FormatAmount(t.GrandTotal))
	fmt.Fprintf(tw, "In words\t%s\n", order.AmountInWords(t.GrandTotal))
	fmt.Fprintln(tw, "\t")
	fmt.Fprintf(tw, "To\t%s\n", r.ToEmail)
	fmt.Fprintf(tw, "Subject\t%s\n", r.EmailSubject)
	fmt.Fprintf(tw, "Body\t%s\n", r.EmailBody)
	return tw.Flush()
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// User-facing texts of the session errors.
const (
	MsgLocked             = "Please log in first"
	MsgInFlight           = "A request is already in progress. Please wait."
	MsgInvalidCredentials = "Invalid username or password"
)

// ErrorMessage returns the text shown to the user for a command error.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrLocked):
		return MsgLocked
	case errors.Is(err, ErrInFlight):
		return MsgInFlight
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	default:
		return err.Error()
	}
}

// RenderStatus writes the banner for st. A zero Status writes nothing.
func RenderStatus(w io.Writer, st delivery.Status) {
	switch {
	case st.Error != "":
		fmt.Fprintf(w, "Error: %s\n", st.Error)
	case st.Success != "":
		fmt.Fprintf(w, "OK: %s\n", st.Success)
		if st.Location != "" {
			fmt.Fprintf(w, "Saved to %s\n", st.Location)
		}
	}
}

// RenderHealth writes one line per probe.
func RenderHealth(w io.Writer, report []health.Status, now time.Time) error {
	tw := newTable(w)
	for _, st := range report {
		checked := "never"
		if !st.CheckedAt.IsZero() {
			checked = now.Sub(st.CheckedAt).Truncate(time.Second).String() + " ago"
		}
		line := fmt.Sprintf("%s\t%s\tchecked %s", st.Name, st.State, checked)
		if st.LastError != nil {
			line += "\t" + st.LastError.Error()
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
