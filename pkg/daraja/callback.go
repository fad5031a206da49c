package daraja

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CallbackEnvelope is the wrapper Daraja posts to the callback URL.
type CallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback is the asynchronous outcome of an STK push. ResultCode 0
// means the customer paid; anything else is a failure or cancellation.
type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackMetadata carries the payment details on success.
type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem is a single name/value pair in the callback metadata.
type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// ParseCallback decodes a callback request body.
func ParseCallback(r io.Reader) (*STKCallback, error) {
	var envelope CallbackEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("daraja: decode callback: %w", err)
	}
	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("daraja: callback missing CheckoutRequestID")
	}
	return &cb, nil
}

// Succeeded reports whether the customer completed the payment.
func (c *STKCallback) Succeeded() bool {
	return c.ResultCode == 0
}

// item returns the metadata value for name, matched case-sensitively.
func (c *STKCallback) item(name string) (interface{}, bool) {
	if c.CallbackMetadata == nil {
		return nil, false
	}
	for _, it := range c.CallbackMetadata.Item {
		if it.Name == name {
			return it.Value, it.Value != nil
		}
	}
	return nil, false
}

// Amount returns the paid amount from the metadata.
func (c *STKCallback) Amount() (float64, bool) {
	v, ok := c.item("Amount")
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// ReceiptNumber returns the M-Pesa receipt number from the metadata.
func (c *STKCallback) ReceiptNumber() (string, bool) {
	v, ok := c.item("MpesaReceiptNumber")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// PhoneNumber returns the paying MSISDN from the metadata. The API
// sends it as a number.
func (c *STKCallback) PhoneNumber() (string, bool) {
	v, ok := c.item("PhoneNumber")
	if !ok {
		return "", false
	}
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', 0, 64), true
	case string:
		return n, n != ""
	}
	return "", false
}

// TransactionDate returns the completion time from the metadata,
// interpreted in loc. The API sends it as YYYYMMDDHHMMSS.
func (c *STKCallback) TransactionDate(loc *time.Location) (time.Time, bool) {
	v, ok := c.item("TransactionDate")
	if !ok {
		return time.Time{}, false
	}
	var raw string
	switch n := v.(type) {
	case float64:
		raw = strconv.FormatFloat(n, 'f', 0, 64)
	case string:
		raw = n
	default:
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	ts, err := time.ParseInLocation(timestampLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
