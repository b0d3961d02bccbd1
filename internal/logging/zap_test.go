package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uzpos/payment-service/internal/domain/ports"
)

func TestZapLogger_ForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("payment completed",
		ports.String("gateway", "fastpay"),
		ports.Int64("amount_minor", 50000),
	)
	logger.Warn("payment failed", ports.Bool("timeout_occurred", true))
	logger.Debug("probe")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "payment completed", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "fastpay", fields["gateway"])
	assert.EqualValues(t, 50000, fields["amount_minor"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, true, entries[1].ContextMap()["timeout_occurred"])
}

func TestNewDevelopment(t *testing.T) {
	logger, err := NewDevelopment()
	require.NoError(t, err)
	require.NotNil(t, logger.Unwrap())
}

func TestNewProduction(t *testing.T) {
	logger, err := NewProduction()
	require.NoError(t, err)
	require.NotNil(t, logger.Unwrap())
}
