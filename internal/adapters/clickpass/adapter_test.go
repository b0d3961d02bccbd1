package clickpass_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uzpos/payment-service/internal/adapters/clickpass"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

type stubCreds map[string]string

func (s stubCreds) Value(_ context.Context, _ domain.GatewayKind, key string) (string, error) {
	return s[key], nil
}

func validCreds() stubCreds {
	return stubCreds{
		"service_id":       "svc-1",
		"merchant_id":      "M-2",
		"merchant_user_id": "U-3",
		"secret_key":       "s3cret",
	}
}

func newAdapter(creds domain.CredentialGetter) *clickpass.Adapter {
	return clickpass.NewAdapter(clickpass.DefaultConfig("sandbox"), creds, zap.NewNop())
}

func TestSign(t *testing.T) {
	header, timestamp, digest := clickpass.Sign("U-3", "s3cret")

	parts := strings.Split(header, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "U-3", parts[0])
	assert.Equal(t, digest, parts[1])
	assert.Equal(t, timestamp, parts[2])

	// Unix seconds.
	_, err := strconv.ParseInt(timestamp, 10, 64)
	require.NoError(t, err)

	sum := sha1.Sum([]byte(timestamp + "s3cret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	assert.Len(t, digest, 40)
}

func TestAdapter_ValidateScanCode(t *testing.T) {
	a := newAdapter(validCreds())

	assert.NoError(t, a.ValidateScanCode("123456789012"))
	assert.NoError(t, a.ValidateScanCode(strings.Repeat("x", 64)))

	err := a.ValidateScanCode("short")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeValidationScanCode, domain.GetErrorCode(err))
}

func TestAdapter_NewCreateRequest(t *testing.T) {
	a := newAdapter(validCreds())

	signed, err := a.NewCreateRequest(context.Background(), ports.CreateOrder{
		OrderID:     "order-1",
		ScanCode:    "123456789012345678",
		AmountMinor: 1234,
		TerminalID:  "till-3",
	})

	require.NoError(t, err)
	assert.Equal(t, "POST", signed.Method)
	assert.Equal(t, "https://testmerchant.click.uz/v2/merchant/click_pass/payment", signed.URL)
	assert.Equal(t, signed.AuthHeader, signed.Headers["Auth"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(signed.Body, &body))
	assert.Equal(t, "svc-1", body["service_id"])
	assert.Equal(t, "M-2", body["merchant_id"])
	assert.Equal(t, "order-1", body["merchant_trans_id"])
	assert.Equal(t, "123456789012345678", body["otp_data"])
	assert.Equal(t, float64(1234), body["amount"])
	assert.Equal(t, "till-3", body["cashbox_code"])
}

func TestAdapter_NewCreateRequest_MissingCredentials(t *testing.T) {
	a := newAdapter(stubCreds{"service_id": "svc-1"})

	_, err := a.NewCreateRequest(context.Background(), ports.CreateOrder{
		OrderID: "x", ScanCode: "123456789012", AmountMinor: 100,
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeConfigMissingKey, domain.GetErrorCode(err))
}

func TestAdapter_NewFiscalRequest_Unsupported(t *testing.T) {
	a := newAdapter(validCreds())

	_, err := a.NewFiscalRequest(context.Background(), "pay-9", "https://ofd.example/r/1")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeValidationFailed, domain.GetErrorCode(err))
}

func TestAdapter_ParseResponse(t *testing.T) {
	a := newAdapter(validCreds())

	t.Run("success", func(t *testing.T) {
		body := []byte(`{"error_code":0,"payment_id":987654,"card_type":"HUMO","card_number":"9860********1234"}`)

		result, err := a.ParseResponse(body)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "987654", result.PaymentID)
		assert.Equal(t, "HUMO", result.Metadata["card_type"])
		assert.Equal(t, "9860********1234", result.Metadata["card_number_masked"])
	})

	t.Run("decline", func(t *testing.T) {
		body := []byte(`{"error_code":-5014,"error_note":"card blocked"}`)

		result, err := a.ParseResponse(body)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, int64(-5014), result.Code)
		assert.Empty(t, result.PaymentID)
	})

	t.Run("unparseable", func(t *testing.T) {
		_, err := a.ParseResponse([]byte(`not json`))

		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeGatewayBadResponse, domain.GetErrorCode(err))
	})
}

func TestAdapter_RetryableCode(t *testing.T) {
	a := newAdapter(validCreds())

	assert.True(t, a.RetryableCode(-5017))
	assert.False(t, a.RetryableCode(-5014))
	assert.False(t, a.RetryableCode(0))
}
