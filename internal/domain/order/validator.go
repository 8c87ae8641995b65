package order

import (
	"fmt"
	"regexp"
	"strings"
)

// numericPattern accepts a non-negative integer with an optional fraction.
var numericPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ValidationError describes the first invalid field or row of a record.
// Its message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks that r can be submitted and returns nil or a
// *ValidationError for the first defect found. When requireRecipientEmail is
// set the dispatch recipient is required as well.
//
// Checks run in a fixed order: required header fields, tax rates, presence of
// line items, then each row in sequence.
func Validate(r *Record, requireRecipientEmail bool) error {
	required := []string{"receiverName", "receiverPhone", "poNumber"}
	if requireRecipientEmail {
		required = append(required, "toEmail")
	}
	for _, name := range required {
		v, _ := r.Get(name)
		if strings.TrimSpace(v) == "" {
			return invalid("Field %q is required.", name)
		}
	}

	taxes := []struct {
		label string
		value string
	}{
		{"CGST", r.CGSTRate},
		{"SGST", r.SGSTRate},
		{"IGST", r.IGSTRate},
	}
	for _, tax := range taxes {
		v := tax.value
		if v == "" {
			v = DefaultTaxRate
		}
		if !numericPattern.MatchString(v) {
			return invalid("Invalid %s value.", tax.label)
		}
	}

	if len(r.Items) == 0 {
		return invalid("At least one line item is required.")
	}

	for i, row := range r.Items {
		n := i + 1
		if strings.TrimSpace(row.Particulars) == "" {
			return invalid("Row %d: particulars is required.", n)
		}
		if !numericPattern.MatchString(row.Rate) {
			return invalid("Row %d: rate must be numeric.", n)
		}
		if !numericPattern.MatchString(row.Quantity) {
			return invalid("Row %d: quantity must be numeric.", n)
		}
	}

	return nil
}
