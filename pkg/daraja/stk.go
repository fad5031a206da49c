package daraja

import (
	"context"
	"fmt"
	"math"
)

// STKPushRequest starts a Lipa Na M-Pesa online payment.
type STKPushRequest struct {
	Phone            string
	Amount           float64
	AccountReference string
	Description      string
}

// STKPushResponse is the synchronous acceptance of an STK push.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPush sends the payment prompt to the customer's phone. The amount
// is rounded up to a whole shilling, the API rejects fractions.
func (c *Client) STKPush(ctx context.Context, req *STKPushRequest) (*STKPushResponse, error) {
	phone, err := FormatPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("daraja: amount must be positive, got %.2f", req.Amount)
	}

	password, timestamp := GeneratePassword(c.config.ShortCode, c.config.Passkey, c.now())
	payload := &stkPushPayload{
		BusinessShortCode: c.config.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   c.config.TransactionType,
		Amount:            int64(math.Ceil(req.Amount)),
		PartyA:            phone,
		PartyB:            c.config.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.config.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}

	var resp STKPushResponse
	if err := c.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != "0" {
		return nil, fmt.Errorf("daraja: stk push rejected: %s (code=%s)",
			resp.ResponseDescription, resp.ResponseCode)
	}
	return &resp, nil
}

// STKQueryResponse is the gateway's view of an in-flight STK push.
type STKQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// Succeeded reports whether the customer completed the payment.
func (r *STKQueryResponse) Succeeded() bool {
	return r.ResultCode == "0"
}

type stkQueryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// STKQuery asks the gateway for the outcome of an earlier STK push.
func (c *Client) STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	password, timestamp := GeneratePassword(c.config.ShortCode, c.config.Passkey, c.now())
	payload := &stkQueryPayload{
		BusinessShortCode: c.config.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	var resp STKQueryResponse
	if err := c.postJSON(ctx, "/mpesa/stkpushquery/v1/query", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
