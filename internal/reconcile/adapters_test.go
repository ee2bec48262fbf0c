package reconcile

import (
	"testing"

	"github.com/neogan74/fedbridge/internal/fedimint"
	"github.com/stretchr/testify/assert"
)

func TestAdaptLnReceive(t *testing.T) {
	assert.Equal(t, Progress, adaptLnReceive(fedimint.LnReceiveState{Kind: fedimint.LnReceiveCreated}).Class)
	assert.Equal(t, Progress, adaptLnReceive(fedimint.LnReceiveState{Kind: fedimint.LnReceiveWaitingForPayment}).Class)
	assert.Equal(t, Progress, adaptLnReceive(fedimint.LnReceiveState{Kind: fedimint.LnReceiveFunded}).Class)

	failed := adaptLnReceive(fedimint.LnReceiveState{Kind: fedimint.LnReceiveCanceled, Reason: "expired"})
	assert.Equal(t, Failed, failed.Class)
	assert.Equal(t, "expired", failed.Reason)
	assert.True(t, failed.Terminal())

	assert.Equal(t, Succeeded, adaptLnReceive(fedimint.LnReceiveState{Kind: fedimint.LnReceiveClaimed}).Class)
}

func TestAdaptLnPay(t *testing.T) {
	var preimage [32]byte
	preimage[0] = 1

	success := adaptLnPay(fedimint.LnPayState{Kind: fedimint.LnPaySuccess, Preimage: preimage})
	assert.Equal(t, Succeeded, success.Class)
	assert.True(t, success.HasPreimage)
	assert.Equal(t, preimage, success.Preimage)

	canceled := adaptLnPay(fedimint.LnPayState{Kind: fedimint.LnPayCanceled})
	assert.Equal(t, Failed, canceled.Class)
	assert.NotEmpty(t, canceled.Reason)

	unexpected := adaptLnPay(fedimint.LnPayState{Kind: fedimint.LnPayUnexpectedError, Reason: "route failed"})
	assert.Equal(t, Failed, unexpected.Class)
	assert.Equal(t, "route failed", unexpected.Reason)

	// Refund states keep the stream alive
	assert.Equal(t, Progress, adaptLnPay(fedimint.LnPayState{Kind: fedimint.LnPayWaitingForRefund}).Class)
	assert.Equal(t, Progress, adaptLnPay(fedimint.LnPayState{Kind: fedimint.LnPayRefunded}).Class)
}

func TestAdaptInternalPay(t *testing.T) {
	funding := adaptInternalPay(fedimint.InternalPayState{Kind: fedimint.InternalPayFundingFailed, Reason: "no funds"})
	assert.Equal(t, Failed, funding.Class)
	assert.True(t, funding.FailureAsReceive, "funding failure reports on the receive side")

	unexpected := adaptInternalPay(fedimint.InternalPayState{Kind: fedimint.InternalPayUnexpectedError, Reason: "boom"})
	assert.Equal(t, Failed, unexpected.Class)
	assert.False(t, unexpected.FailureAsReceive)

	var preimage [32]byte
	preimage[5] = 9
	success := adaptInternalPay(fedimint.InternalPayState{Kind: fedimint.InternalPayPreimage, Preimage: preimage})
	assert.Equal(t, Succeeded, success.Class)
	assert.Equal(t, preimage, success.Preimage)
}

func TestAdaptOnchainPay(t *testing.T) {
	assert.Equal(t, Progress, adaptOnchainPay(fedimint.WithdrawState{Kind: fedimint.WithdrawCreated}).Class)

	success := adaptOnchainPay(fedimint.WithdrawState{Kind: fedimint.WithdrawSucceeded, Txid: "abc"})
	assert.Equal(t, Succeeded, success.Class)
	assert.Equal(t, "abc", success.Txid)

	failed := adaptOnchainPay(fedimint.WithdrawState{Kind: fedimint.WithdrawFailed, Reason: "rejected"})
	assert.Equal(t, Failed, failed.Class)
	assert.Equal(t, "rejected", failed.Reason)
}

func TestAdaptOnchainReceive(t *testing.T) {
	assert.Equal(t, Progress, adaptOnchainReceive(fedimint.DepositState{Kind: fedimint.DepositWaitingForTransaction}).Class)

	detected := adaptOnchainReceive(fedimint.DepositState{
		Kind:       fedimint.DepositWaitingForConfirmation,
		Txid:       "txid-1",
		AmountMsat: 1000,
	})
	assert.Equal(t, Progress, detected.Class)
	assert.True(t, detected.Announce)
	assert.False(t, detected.Terminal())
	assert.Equal(t, "txid-1", detected.Txid)
	assert.Equal(t, uint64(1000), detected.AmountMsat)

	// Confirmed is not terminal, only Claimed resolves the deposit
	assert.Equal(t, Progress, adaptOnchainReceive(fedimint.DepositState{Kind: fedimint.DepositConfirmed}).Class)

	claimed := adaptOnchainReceive(fedimint.DepositState{Kind: fedimint.DepositClaimed, Txid: "txid-1"})
	assert.Equal(t, Succeeded, claimed.Class)
	assert.Equal(t, "txid-1", claimed.Txid)

	failed := adaptOnchainReceive(fedimint.DepositState{Kind: fedimint.DepositFailed, Reason: "timeout"})
	assert.Equal(t, Failed, failed.Class)
}
