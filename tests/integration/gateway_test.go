//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safarinest/hotel-booking-backend/pkg/daraja"
)

// fakeGateway answers STK calls without touching Daraja.
type fakeGateway struct {
	mu sync.Mutex

	pushResp  *daraja.STKPushResponse
	pushErr   error
	pushCalls []*daraja.STKPushRequest

	queryResp  *daraja.STKQueryResponse
	queryErr   error
	queryCalls []string
}

func (g *fakeGateway) STKPush(_ context.Context, req *daraja.STKPushRequest) (*daraja.STKPushResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushCalls = append(g.pushCalls, req)
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	return g.pushResp, nil
}

func (g *fakeGateway) STKQuery(_ context.Context, checkoutRequestID string) (*daraja.STKQueryResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryCalls = append(g.queryCalls, checkoutRequestID)
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	return g.queryResp, nil
}

func callbackBody(t *testing.T, checkoutRequestID string, resultCode int, items []daraja.MetadataItem) *bytes.Reader {
	t.Helper()
	var envelope daraja.CallbackEnvelope
	envelope.Body.StkCallback = daraja.STKCallback{
		MerchantRequestID: "merchant-1",
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        resultCode,
		ResultDesc:        "desc",
	}
	if items != nil {
		envelope.Body.StkCallback.CallbackMetadata = &daraja.CallbackMetadata{Item: items}
	}
	raw, err := json.Marshal(&envelope)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func successItems(amount float64, receipt string) []daraja.MetadataItem {
	return []daraja.MetadataItem{
		{Name: "Amount", Value: amount},
		{Name: "MpesaReceiptNumber", Value: receipt},
		{Name: "TransactionDate", Value: float64(20260910143000)},
		{Name: "PhoneNumber", Value: float64(254712345678)},
	}
}
