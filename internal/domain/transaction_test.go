package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCanTransition exercises the full status transition table.
func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     TransactionStatus
		to       TransactionStatus
		expected bool
	}{
		{"pending_to_processing", StatusPending, StatusProcessing, true},
		{"pending_to_failed", StatusPending, StatusFailed, true},
		{"pending_to_success_skips_processing", StatusPending, StatusSuccess, false},
		{"pending_to_reversed", StatusPending, StatusReversed, false},
		{"processing_to_processing_retry_bump", StatusProcessing, StatusProcessing, true},
		{"processing_to_success", StatusProcessing, StatusSuccess, true},
		{"processing_to_failed", StatusProcessing, StatusFailed, true},
		{"processing_to_pending_regression", StatusProcessing, StatusPending, false},
		{"success_to_reversed", StatusSuccess, StatusReversed, true},
		{"success_to_failed", StatusSuccess, StatusFailed, false},
		{"success_to_processing_regression", StatusSuccess, StatusProcessing, false},
		{"failed_to_anything", StatusFailed, StatusProcessing, false},
		{"failed_to_success", StatusFailed, StatusSuccess, false},
		{"reversed_is_final", StatusReversed, StatusSuccess, false},
		{"reversed_to_failed", StatusReversed, StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   TransactionStatus
		expected bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusSuccess, true},
		{StatusFailed, true},
		{StatusReversed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsTerminal())
		})
	}
}

func TestTransaction_CanBeReversed(t *testing.T) {
	tests := []struct {
		status   TransactionStatus
		expected bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusSuccess, true},
		{StatusFailed, false},
		{StatusReversed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.expected, tx.CanBeReversed())
		})
	}
}

func TestTransaction_CanBeFiscalized(t *testing.T) {
	assert.True(t, (&Transaction{Status: StatusSuccess}).CanBeFiscalized())
	assert.False(t, (&Transaction{Status: StatusFailed}).CanBeFiscalized())
	assert.False(t, (&Transaction{Status: StatusReversed}).CanBeFiscalized())
}

func TestTransaction_CanBeLinked(t *testing.T) {
	assert.True(t, (&Transaction{Status: StatusSuccess}).CanBeLinked())
	assert.False(t, (&Transaction{Status: StatusPending}).CanBeLinked())
	assert.False(t, (&Transaction{Status: StatusReversed}).CanBeLinked())
}
