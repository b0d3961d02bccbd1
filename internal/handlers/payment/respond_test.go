package payment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzpos/payment-service/internal/domain"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.ErrAmountInvalid, http.StatusBadRequest, "VALIDATION_AMOUNT_INVALID"},
		{"missing_field", domain.ErrMissingField, http.StatusBadRequest, "VALIDATION_MISSING_FIELD"},
		{"not_found", domain.ErrTxnNotFound, http.StatusNotFound, "TXN_NOT_FOUND"},
		{"invalid_state", domain.ErrTxnInvalidState, http.StatusConflict, "TXN_INVALID_STATE"},
		{"gateway_timeout", domain.ErrGatewayTimedOut, http.StatusBadGateway, "GATEWAY_TIMEOUT"},
		{"gateway_network", domain.ErrGatewayUnreachable, http.StatusBadGateway, "GATEWAY_NETWORK_ERROR"},
		{"config_error", domain.ErrConfigPlaceholder, http.StatusInternalServerError, "CONFIG_PLACEHOLDER_VALUE"},
		{"plain_error", fmt.Errorf("something broke"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestParseRangeBound(t *testing.T) {
	tests := []struct {
		name  string
		input string
		end   bool
		want  time.Time
	}{
		{
			name:  "rfc3339 instant normalized to utc",
			input: "2026-08-25T14:30:00+05:00",
			want:  time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
		},
		{
			name:  "bare date snaps from to midnight",
			input: "2026-08-25",
			want:  time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "bare date snaps to to end of day",
			input: "2026-08-25",
			end:   true,
			want:  time.Date(2026, 8, 25, 23, 59, 59, 999999999, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRangeBound(tt.input, tt.end)

			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := parseRangeBound("25/08/2026", false)
	require.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
