package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromResult(t *testing.T) {
	assert.Equal(t, Succeeded(), StatusFromResult(0, "The service request is processed successfully."))
	assert.Equal(t, Cancelled(), StatusFromResult(1032, "Request cancelled by user"))

	failed := StatusFromResult(1, "The balance is insufficient for the transaction.")
	assert.Equal(t, StatusFailed, failed.Kind)
	assert.Equal(t, "The balance is insufficient for the transaction.", failed.Reason)
	assert.Equal(t, "Failed: The balance is insufficient for the transaction.", failed.String())
}

func TestTransactionStatus_Terminal(t *testing.T) {
	assert.False(t, Pending().IsTerminal())
	for _, s := range []TransactionStatus{Succeeded(), Cancelled(), Failed("x"), TimedOut()} {
		assert.True(t, s.IsTerminal(), s.String())
	}
}

func TestTransactionStatus_APIValue(t *testing.T) {
	assert.Equal(t, "pending", Pending().APIValue())
	assert.Equal(t, "success", Succeeded().APIValue())
	assert.Equal(t, "cancelled", Cancelled().APIValue())
	assert.Equal(t, "failed", Failed("DS timeout user cannot be reached").APIValue())
	assert.Equal(t, "timeout", TimedOut().APIValue())
}

func TestParseStatusKind(t *testing.T) {
	k, err := ParseStatusKind("TimedOut")
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, k)

	_, err = ParseStatusKind("Failed: nope")
	assert.Error(t, err)
}

func TestSTKCallback_Receipt(t *testing.T) {
	cb := &STKCallback{}
	assert.Empty(t, cb.Receipt())

	cb.CallbackMetadata = &CallbackMetadata{Item: []CallbackItem{
		{Name: "Amount", Value: 1.0},
		{Name: "MpesaReceiptNumber", Value: "NLJ7RT61SV"},
	}}
	assert.Equal(t, "NLJ7RT61SV", cb.Receipt())
}
