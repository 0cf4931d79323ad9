package entity

import (
	"bytes"
	"encoding/json"
	"strings"
)

// LineItem is one billable row as returned by the extraction step.
// Quantity and Price keep their raw JSON form; they are coerced to numbers
// only when the invoice is rendered. A nil value means the key was absent.
type LineItem struct {
	Description string
	Quantity    json.RawMessage
	Price       json.RawMessage

	// Malformed is set when the JSON element was not an object at all.
	Malformed bool
}

// NewLineItem builds a LineItem from Go values. A nil quantity or price is
// treated as an absent key.
func NewLineItem(description string, quantity, price interface{}) LineItem {
	return LineItem{
		Description: description,
		Quantity:    rawOrNil(quantity),
		Price:       rawOrNil(price),
	}
}

func rawOrNil(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

// UnmarshalJSON decodes an item leniently. Unknown shapes never fail the
// surrounding document; they mark the item as malformed instead.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		*li = LineItem{Malformed: true}
		return nil
	}

	*li = LineItem{
		Description: looseString(fields["description"]),
		Quantity:    fields["quantity"],
		Price:       fields["price"],
	}
	return nil
}

// MarshalJSON writes the item back in the extraction wire format.
func (li LineItem) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	desc, _ := json.Marshal(li.Description)
	out["description"] = desc
	if li.Quantity != nil {
		out["quantity"] = li.Quantity
	}
	if li.Price != nil {
		out["price"] = li.Price
	}
	return json.Marshal(out)
}

// InvoiceDocumentRequest is the structured data the renderer consumes.
type InvoiceDocumentRequest struct {
	ClientName string     `json:"client_name"`
	Items      []LineItem `json:"items"`
	Note       string     `json:"note"`
}

// UnmarshalJSON decodes the extraction payload. Fields of the wrong type are
// treated as missing so that the defaulting rules apply.
func (r *InvoiceDocumentRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = InvoiceDocumentRequest{
		ClientName: looseString(fields["client_name"]),
		Note:       looseString(fields["note"]),
	}

	if raw, ok := fields["items"]; ok {
		var items []LineItem
		if err := json.Unmarshal(raw, &items); err == nil {
			r.Items = items
		}
	}
	return nil
}

// ClientOrDefault returns the client name, or DefaultClientName when blank.
func (r InvoiceDocumentRequest) ClientOrDefault(fallback string) string {
	if strings.TrimSpace(r.ClientName) == "" {
		return fallback
	}
	return r.ClientName
}

// NoteOrDefault returns the note, or fallback when blank.
func (r InvoiceDocumentRequest) NoteOrDefault(fallback string) string {
	if strings.TrimSpace(r.Note) == "" {
		return fallback
	}
	return r.Note
}

// looseString renders a JSON value as text: strings verbatim, null or
// absent as "", anything else as its JSON literal.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
