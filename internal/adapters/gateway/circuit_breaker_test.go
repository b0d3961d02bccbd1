package gateway_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzpos/payment-service/internal/adapters/gateway"
)

func breakerConfig() gateway.CircuitBreakerConfig {
	return gateway.CircuitBreakerConfig{
		MaxFailures:         3,
		Timeout:             50 * time.Millisecond,
		MaxRequestsHalfOpen: 1,
	}
}

var errGatewayDown = errors.New("gateway down")

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := gateway.NewCircuitBreaker(breakerConfig())

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errGatewayDown })
	}

	assert.Equal(t, gateway.StateOpen, cb.State())

	err := cb.Call(func() error { return nil })
	assert.ErrorIs(t, err, gateway.ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := gateway.NewCircuitBreaker(breakerConfig())

	_ = cb.Call(func() error { return errGatewayDown })
	_ = cb.Call(func() error { return errGatewayDown })
	require.NoError(t, cb.Call(func() error { return nil }))

	assert.Equal(t, gateway.StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.Failures())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := gateway.NewCircuitBreaker(breakerConfig())

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errGatewayDown })
	}
	require.Equal(t, gateway.StateOpen, cb.State())

	time.Sleep(60 * time.Millisecond)

	// First probe after the timeout is allowed and closes the circuit.
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, gateway.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := gateway.NewCircuitBreaker(breakerConfig())

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errGatewayDown })
	}

	time.Sleep(60 * time.Millisecond)

	_ = cb.Call(func() error { return errGatewayDown })
	assert.Equal(t, gateway.StateOpen, cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", gateway.StateClosed.String())
	assert.Equal(t, "open", gateway.StateOpen.String())
	assert.Equal(t, "half-open", gateway.StateHalfOpen.String())
}
