package docservice

import (
	"github.com/go-faster/jx"

	"github.com/xenking/pi-generator/internal/domain/order"
)

// Payload is the request body shared by both service endpoints.
//
// Rates, quantities and tax rates are sent as the strings the user entered.
type Payload struct {
	Record order.Record
	// LogoDataURL is the embedded logo, or empty when none was loaded.
	LogoDataURL string
}

// NewPayload builds a payload from a snapshot of r.
func NewPayload(r *order.Record, logoDataURL string) *Payload {
	return &Payload{
		Record:      *r.Snapshot(),
		LogoDataURL: logoDataURL,
	}
}

// Encode writes the payload as one flat JSON object: the record fields by
// their wire names, then items, piDate and logoDataUrl.
func (p *Payload) Encode(e *jx.Encoder) {
	r := &p.Record

	e.ObjStart()
	str := func(name, v string) {
		e.FieldStart(name)
		e.Str(v)
	}
	str("receiverName", r.ReceiverName)
	str("receiverAddress", r.ReceiverAddress)
	str("receiverPhone", r.ReceiverPhone)
	str("receiverEmail", r.ReceiverEmail)
	str("receiverGstin", r.ReceiverGSTIN)
	str("poNumber", r.PONumber)
	str("poDate", r.PODate)
	str("transportMode", r.TransportMode)
	str("deliveryDate", r.DeliveryDate)
	str("destination", r.Destination)
	str("cgstRate", r.CGSTRate)
	str("sgstRate", r.SGSTRate)
	str("igstRate", r.IGSTRate)
	str("toEmail", r.ToEmail)
	str("emailSubject", r.EmailSubject)
	str("emailBody", r.EmailBody)

	e.FieldStart("items")
	e.ArrStart()
	for _, it := range r.Items {
		e.ObjStart()
		str("particulars", it.Particulars)
		str("hsn", it.HSN)
		str("dcNo", it.DCNo)
		str("rate", it.Rate)
		str("quantity", it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()

	str("piDate", r.PODate)

	e.FieldStart("logoDataUrl")
	if p.LogoDataURL == "" {
		e.Null()
	} else {
		e.Str(p.LogoDataURL)
	}
	e.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (p *Payload) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	p.Encode(e)
	return append([]byte(nil), e.Bytes()...), nil
}
