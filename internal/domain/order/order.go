package order

import (
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

const (
	// MaxItems is the number of rows the generated document template can hold.
	MaxItems = 10

	// DefaultTaxRate is the initial value of every tax rate field.
	DefaultTaxRate = "0"
	// DefaultEmailSubject is the initial subject of the dispatch email.
	DefaultEmailSubject = "Purchase Order – SRI CHAKRI TRADERS"
)

// ErrUnknownField is returned when a field name does not match any record or
// line item field.
var ErrUnknownField = errors.New("unknown field")

// Record is the single order captured by a session: receiver and order
// header, tax rates, line items and the email dispatch fields.
//
// All values are kept as entered. Numeric fields are only interpreted by
// Validate and the amount helpers.
type Record struct {
	ReceiverName    string
	ReceiverAddress string
	ReceiverPhone   string
	ReceiverEmail   string
	ReceiverGSTIN   string
	PONumber        string
	PODate          string
	TransportMode   string
	DeliveryDate    string
	Destination     string

	CGSTRate string
	SGSTRate string
	IGSTRate string

	Items []LineItem

	ToEmail      string
	EmailSubject string
	EmailBody    string
}

// LineItem is one row of the order. Row order defines the serial number
// shown to the user and the row order of the generated document.
type LineItem struct {
	Particulars string
	HSN         string
	DCNo        string
	Rate        string
	Quantity    string
}

// New returns an empty record with one blank line item and default tax rates.
func New() *Record {
	return &Record{
		CGSTRate:     DefaultTaxRate,
		SGSTRate:     DefaultTaxRate,
		IGSTRate:     DefaultTaxRate,
		Items:        []LineItem{{}},
		EmailSubject: DefaultEmailSubject,
	}
}

// AddItem appends a blank line item. It reports false and leaves the record
// unchanged when the record already holds MaxItems rows.
func (r *Record) AddItem() bool {
	if len(r.Items) >= MaxItems {
		return false
	}
	r.Items = append(r.Items, LineItem{})
	return true
}

// RemoveItem deletes the row at index i (0-based). The last remaining row is
// never removed.
func (r *Record) RemoveItem(i int) bool {
	if len(r.Items) <= 1 || i < 0 || i >= len(r.Items) {
		return false
	}
	r.Items = append(r.Items[:i], r.Items[i+1:]...)
	return true
}

// Snapshot returns a deep copy of the record.
func (r *Record) Snapshot() *Record {
	c := *r
	c.Items = make([]LineItem, len(r.Items))
	copy(c.Items, r.Items)
	return &c
}

// field binds a wire field name to its storage and input length limit.
// A zero maxLen means unbounded.
type field[T any] struct {
	maxLen int
	ref    func(*T) *string
}

var recordFields = map[string]field[Record]{
	"receiverName":    {60, func(r *Record) *string { return &r.ReceiverName }},
	"receiverAddress": {200, func(r *Record) *string { return &r.ReceiverAddress }},
	"receiverPhone":   {20, func(r *Record) *string { return &r.ReceiverPhone }},
	"receiverEmail":   {80, func(r *Record) *string { return &r.ReceiverEmail }},
	"receiverGstin":   {20, func(r *Record) *string { return &r.ReceiverGSTIN }},
	"poNumber":        {30, func(r *Record) *string { return &r.PONumber }},
	"poDate":          {0, func(r *Record) *string { return &r.PODate }},
	"transportMode":   {40, func(r *Record) *string { return &r.TransportMode }},
	"deliveryDate":    {0, func(r *Record) *string { return &r.DeliveryDate }},
	"destination":     {60, func(r *Record) *string { return &r.Destination }},
	"cgstRate":        {0, func(r *Record) *string { return &r.CGSTRate }},
	"sgstRate":        {0, func(r *Record) *string { return &r.SGSTRate }},
	"igstRate":        {0, func(r *Record) *string { return &r.IGSTRate }},
	"toEmail":         {0, func(r *Record) *string { return &r.ToEmail }},
	"emailSubject":    {0, func(r *Record) *string { return &r.EmailSubject }},
	"emailBody":       {0, func(r *Record) *string { return &r.EmailBody }},
}

var itemFields = map[string]field[LineItem]{
	"particulars": {80, func(it *LineItem) *string { return &it.Particulars }},
	"hsn":         {20, func(it *LineItem) *string { return &it.HSN }},
	"dcNo":        {20, func(it *LineItem) *string { return &it.DCNo }},
	"rate":        {0, func(it *LineItem) *string { return &it.Rate }},
	"quantity":    {0, func(it *LineItem) *string { return &it.Quantity }},
}

// Set assigns a header, tax or email field by its wire name. Values longer
// than the field's input limit are truncated.
func (r *Record) Set(name, value string) error {
	f, ok := recordFields[name]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "%q", name)
	}
	*f.ref(r) = clip(value, f.maxLen)
	return nil
}

// Get returns a header, tax or email field by its wire name.
func (r *Record) Get(name string) (string, bool) {
	f, ok := recordFields[name]
	if !ok {
		return "", false
	}
	return *f.ref(r), true
}

// SetItem assigns a field of the row at index i (0-based).
func (r *Record) SetItem(i int, name, value string) error {
	if i < 0 || i >= len(r.Items) {
		return errors.Errorf("row %d out of range (1-%d)", i+1, len(r.Items))
	}
	f, ok := itemFields[name]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "%q", name)
	}
	*f.ref(&r.Items[i]) = clip(value, f.maxLen)
	return nil
}

// FieldNames returns the settable record field names, sorted.
func FieldNames() []string {
	return slices.Sorted(maps.Keys(recordFields))
}

// ItemFieldNames returns the settable line item field names, sorted.
func ItemFieldNames() []string {
	return slices.Sorted(maps.Keys(itemFields))
}

// clip truncates s to at most n runes.
func clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
