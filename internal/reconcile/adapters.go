package reconcile

import (
	"github.com/neogan74/fedbridge/internal/fedimint"
)

// Boundary adapters from the protocol client's native states into the
// shared LifecycleEvent union. Anything not listed terminal here keeps
// the stream alive.

func adaptLnReceive(state fedimint.LnReceiveState) LifecycleEvent {
	switch state.Kind {
	case fedimint.LnReceiveCanceled:
		return LifecycleEvent{Class: Failed, Reason: state.Reason}
	case fedimint.LnReceiveClaimed:
		return LifecycleEvent{Class: Succeeded}
	default:
		return LifecycleEvent{Class: Progress}
	}
}

func adaptLnPay(state fedimint.LnPayState) LifecycleEvent {
	switch state.Kind {
	case fedimint.LnPayCanceled:
		return LifecycleEvent{Class: Failed, Reason: "Canceled"}
	case fedimint.LnPayUnexpectedError:
		return LifecycleEvent{Class: Failed, Reason: state.Reason}
	case fedimint.LnPaySuccess:
		return LifecycleEvent{Class: Succeeded, Preimage: state.Preimage, HasPreimage: true}
	default:
		return LifecycleEvent{Class: Progress}
	}
}

func adaptInternalPay(state fedimint.InternalPayState) LifecycleEvent {
	switch state.Kind {
	case fedimint.InternalPayFundingFailed:
		return LifecycleEvent{Class: Failed, Reason: state.Reason, FailureAsReceive: true}
	case fedimint.InternalPayUnexpectedError:
		return LifecycleEvent{Class: Failed, Reason: state.Reason}
	case fedimint.InternalPayPreimage:
		return LifecycleEvent{Class: Succeeded, Preimage: state.Preimage, HasPreimage: true}
	default:
		return LifecycleEvent{Class: Progress}
	}
}

func adaptOnchainPay(state fedimint.WithdrawState) LifecycleEvent {
	switch state.Kind {
	case fedimint.WithdrawFailed:
		return LifecycleEvent{Class: Failed, Reason: state.Reason}
	case fedimint.WithdrawSucceeded:
		return LifecycleEvent{Class: Succeeded, Txid: state.Txid}
	default:
		return LifecycleEvent{Class: Progress}
	}
}

func adaptOnchainReceive(state fedimint.DepositState) LifecycleEvent {
	switch state.Kind {
	case fedimint.DepositFailed:
		return LifecycleEvent{Class: Failed, Reason: state.Reason}
	case fedimint.DepositWaitingForConfirmation:
		// Deposit seen onchain: announce it and persist the txid, but
		// the operation only resolves once claimed
		return LifecycleEvent{
			Class:      Progress,
			Announce:   true,
			Txid:       state.Txid,
			AmountMsat: state.AmountMsat,
		}
	case fedimint.DepositClaimed:
		return LifecycleEvent{Class: Succeeded, Txid: state.Txid, AmountMsat: state.AmountMsat}
	default:
		return LifecycleEvent{Class: Progress}
	}
}
