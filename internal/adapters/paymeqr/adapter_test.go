package paymeqr_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uzpos/payment-service/internal/adapters/paymeqr"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

type stubCreds map[string]string

func (s stubCreds) Value(_ context.Context, _ domain.GatewayKind, key string) (string, error) {
	return s[key], nil
}

func validCreds() stubCreds {
	return stubCreds{
		"cashbox_id": "cb-100",
		"key_id":     "k-1",
		"key":        "s3cret",
	}
}

func newAdapter(creds domain.CredentialGetter) *paymeqr.Adapter {
	return paymeqr.NewAdapter(paymeqr.DefaultConfig("sandbox"), creds, zap.NewNop())
}

const receiptToken = "64a1f20bd4e1a2c3b4d5e6f7"

func TestAdapter_ValidateScanCode(t *testing.T) {
	a := newAdapter(validCreds())

	assert.NoError(t, a.ValidateScanCode(receiptToken))
	assert.NoError(t, a.ValidateScanCode(strings.Repeat("a", 32)))

	err := a.ValidateScanCode("tooshort")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeValidationScanCode, domain.GetErrorCode(err))
}

func TestAdapter_NewCreateRequest(t *testing.T) {
	a := newAdapter(validCreds())

	signed, err := a.NewCreateRequest(context.Background(), ports.CreateOrder{
		OrderID:     "order-1",
		ScanCode:    receiptToken,
		AmountMinor: 50000,
	})

	require.NoError(t, err)
	assert.Equal(t, "POST", signed.Method)
	assert.Equal(t, "https://checkout.test.paycom.uz/api", signed.URL)
	assert.Equal(t, "k-1:s3cret", signed.Headers["X-Auth"])
	assert.Equal(t, "k-1:s3cret", signed.AuthHeader)
	// Static credential pair: no signing timestamp.
	assert.Empty(t, signed.Timestamp)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(signed.Body, &body))
	assert.Equal(t, "receipts.pay", body["method"])

	params := body["params"].(map[string]interface{})
	assert.Equal(t, receiptToken, params["id"])
	assert.Equal(t, "order-1", params["order_id"])
	assert.Equal(t, float64(50000), params["amount"])
	assert.Equal(t, "cb-100", params["cashbox_id"])
}

func TestAdapter_NewFiscalRequest(t *testing.T) {
	a := newAdapter(validCreds())

	signed, err := a.NewFiscalRequest(context.Background(), "pay-9", "https://ofd.example/r/42")

	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(signed.Body, &body))
	assert.Equal(t, "receipts.set_fiscal_data", body["method"])

	params := body["params"].(map[string]interface{})
	assert.Equal(t, "pay-9", params["id"])
	assert.Equal(t, "https://ofd.example/r/42", params["fiscal_url"])
}

func TestAdapter_NewCreateRequest_MissingCredentials(t *testing.T) {
	a := newAdapter(stubCreds{"cashbox_id": "cb-100"})

	_, err := a.NewCreateRequest(context.Background(), ports.CreateOrder{
		OrderID: "x", ScanCode: receiptToken, AmountMinor: 100,
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeConfigMissingKey, domain.GetErrorCode(err))
}

func TestAdapter_ParseResponse(t *testing.T) {
	a := newAdapter(validCreds())

	t.Run("success_with_receipt", func(t *testing.T) {
		body := []byte(`{"result":{"receipt":{"_id":"64a1f20bd4e1a2c3b4d5e6f7","state":4,"payer_phone_masked":"99890***4567"}}}`)

		result, err := a.ParseResponse(body)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "64a1f20bd4e1a2c3b4d5e6f7", result.PaymentID)
		assert.Equal(t, "4", result.Metadata["receipt_state"])
		assert.Equal(t, "99890***4567", result.Metadata["phone_masked"])
	})

	t.Run("rpc_error", func(t *testing.T) {
		body := []byte(`{"error":{"code":-31050,"message":"receipt not found"}}`)

		result, err := a.ParseResponse(body)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, int64(-31050), result.Code)
		assert.Equal(t, "receipt not found", result.Message)
	})

	t.Run("unparseable", func(t *testing.T) {
		_, err := a.ParseResponse([]byte(`<html>504</html>`))

		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeGatewayBadResponse, domain.GetErrorCode(err))
	})
}

func TestAdapter_RetryableCode_AlwaysFalse(t *testing.T) {
	a := newAdapter(validCreds())

	assert.False(t, a.RetryableCode(-31050))
	assert.False(t, a.RetryableCode(-9999))
	assert.False(t, a.RetryableCode(0))
}
