package order

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRecord returns the smallest record that passes validation.
func validRecord() *Record {
	r := New()
	r.ReceiverName = "Acme"
	r.ReceiverPhone = "9999999999"
	r.PONumber = "PO1"
	r.Items[0] = LineItem{Particulars: "Widget", Rate: "10", Quantity: "3"}
	return r
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(r *Record)
		requireEmail bool
		wantMsg      string
	}{
		{
			name:   "valid record",
			mutate: func(*Record) {},
		},
		{
			name:    "blank receiver name",
			mutate:  func(r *Record) { r.ReceiverName = "   " },
			wantMsg: `Field "receiverName" is required.`,
		},
		{
			name:    "missing phone",
			mutate:  func(r *Record) { r.ReceiverPhone = "" },
			wantMsg: `Field "receiverPhone" is required.`,
		},
		{
			name:    "missing po number",
			mutate:  func(r *Record) { r.PONumber = "\t" },
			wantMsg: `Field "poNumber" is required.`,
		},
		{
			name:         "recipient required for dispatch",
			mutate:       func(*Record) {},
			requireEmail: true,
			wantMsg:      `Field "toEmail" is required.`,
		},
		{
			name:         "recipient present for dispatch",
			mutate:       func(r *Record) { r.ToEmail = "buyer@example.com" },
			requireEmail: true,
		},
		{
			name:   "recipient ignored for download",
			mutate: func(r *Record) { r.ToEmail = "" },
		},
		{
			name:   "empty tax rates coerced to zero",
			mutate: func(r *Record) { r.CGSTRate, r.SGSTRate, r.IGSTRate = "", "", "" },
		},
		{
			name:   "fractional tax rate",
			mutate: func(r *Record) { r.IGSTRate = "18.5" },
		},
		{
			name:    "negative cgst",
			mutate:  func(r *Record) { r.CGSTRate = "-9" },
			wantMsg: "Invalid CGST value.",
		},
		{
			name:    "sgst with trailing dot",
			mutate:  func(r *Record) { r.SGSTRate = "9." },
			wantMsg: "Invalid SGST value.",
		},
		{
			name:    "igst text",
			mutate:  func(r *Record) { r.IGSTRate = "abc" },
			wantMsg: "Invalid IGST value.",
		},
		{
			name:    "no items",
			mutate:  func(r *Record) { r.Items = nil },
			wantMsg: "At least one line item is required.",
		},
		{
			name:    "rate not numeric",
			mutate:  func(r *Record) { r.Items[0].Rate = "abc" },
			wantMsg: "Row 1: rate must be numeric.",
		},
		{
			name:    "empty quantity",
			mutate:  func(r *Record) { r.Items[0].Quantity = "" },
			wantMsg: "Row 1: quantity must be numeric.",
		},
		{
			name: "second row particulars",
			mutate: func(r *Record) {
				r.Items = append(r.Items, LineItem{Particulars: " ", Rate: "1", Quantity: "1"})
			},
			wantMsg: "Row 2: particulars is required.",
		},
		{
			name: "first defect wins",
			mutate: func(r *Record) {
				r.PONumber = ""
				r.CGSTRate = "x"
				r.Items[0].Rate = "x"
			},
			wantMsg: `Field "poNumber" is required.`,
		},
		{
			name: "rows checked in order",
			mutate: func(r *Record) {
				r.Items[0].Quantity = "1,5"
				r.Items = append(r.Items, LineItem{Particulars: "", Rate: "1", Quantity: "1"})
			},
			wantMsg: "Row 1: quantity must be numeric.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(r)

			err := Validate(r, tt.requireEmail)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %v", err)
			assert.Equal(t, tt.wantMsg, vErr.Message)
		})
	}
}

func TestValidate_Deterministic(t *testing.T) {
	r := validRecord()
	r.Items[0].Rate = "abc"

	first := Validate(r, false)
	second := Validate(r, false)
	require.Error(t, first)
	assert.Equal(t, first.Error(), second.Error())

	// Validation does not mutate the record.
	assert.Equal(t, "abc", r.Items[0].Rate)
}
