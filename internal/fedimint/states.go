package fedimint

// Native per-flow lifecycle states as the protocol client reports them.
// Each operation's states arrive on a push-based, ordered stream that
// ends once a terminal state is delivered.

// LnReceiveStateKind enumerates lightning receive lifecycle states
type LnReceiveStateKind string

const (
	LnReceiveCreated           LnReceiveStateKind = "created"
	LnReceiveWaitingForPayment LnReceiveStateKind = "waiting_for_payment"
	LnReceiveFunded            LnReceiveStateKind = "funded"
	LnReceiveAwaitingFunds     LnReceiveStateKind = "awaiting_funds"
	LnReceiveCanceled          LnReceiveStateKind = "canceled"
	LnReceiveClaimed           LnReceiveStateKind = "claimed"
)

// LnReceiveState is one state of an incoming lightning payment
type LnReceiveState struct {
	Kind   LnReceiveStateKind
	Reason string // set for Canceled
}

// LnPayStateKind enumerates lightning pay lifecycle states
type LnPayStateKind string

const (
	LnPayCreated          LnPayStateKind = "created"
	LnPayFunded           LnPayStateKind = "funded"
	LnPayWaitingForRefund LnPayStateKind = "waiting_for_refund"
	LnPayAwaitingChange   LnPayStateKind = "awaiting_change"
	LnPayCanceled         LnPayStateKind = "canceled"
	LnPaySuccess          LnPayStateKind = "success"
	LnPayRefunded         LnPayStateKind = "refunded"
	LnPayUnexpectedError  LnPayStateKind = "unexpected_error"
)

// LnPayState is one state of an outgoing lightning payment routed
// through a gateway
type LnPayState struct {
	Kind     LnPayStateKind
	Preimage [32]byte // set for Success
	Reason   string   // set for UnexpectedError
}

// InternalPayStateKind enumerates states of a payment settled inside
// the federation without touching a gateway
type InternalPayStateKind string

const (
	InternalPayFunding         InternalPayStateKind = "funding"
	InternalPayPreimage        InternalPayStateKind = "preimage"
	InternalPayRefundSuccess   InternalPayStateKind = "refund_success"
	InternalPayRefundError     InternalPayStateKind = "refund_error"
	InternalPayFundingFailed   InternalPayStateKind = "funding_failed"
	InternalPayUnexpectedError InternalPayStateKind = "unexpected_error"
)

// InternalPayState is one state of an intra-federation payment
type InternalPayState struct {
	Kind     InternalPayStateKind
	Preimage [32]byte // set for Preimage
	Reason   string   // set for FundingFailed / UnexpectedError
}

// WithdrawStateKind enumerates onchain withdrawal lifecycle states
type WithdrawStateKind string

const (
	WithdrawCreated   WithdrawStateKind = "created"
	WithdrawSucceeded WithdrawStateKind = "succeeded"
	WithdrawFailed    WithdrawStateKind = "failed"
)

// WithdrawState is one state of an onchain payment out of the federation
type WithdrawState struct {
	Kind   WithdrawStateKind
	Txid   string // set for Succeeded
	Reason string // set for Failed
}

// DepositStateKind enumerates onchain deposit lifecycle states
type DepositStateKind string

const (
	DepositWaitingForTransaction  DepositStateKind = "waiting_for_transaction"
	DepositWaitingForConfirmation DepositStateKind = "waiting_for_confirmation"
	DepositConfirmed              DepositStateKind = "confirmed"
	DepositClaimed                DepositStateKind = "claimed"
	DepositFailed                 DepositStateKind = "failed"
)

// DepositState is one state of an onchain deposit into the federation.
// Txid and AmountMsat are populated from WaitingForConfirmation onward.
type DepositState struct {
	Kind       DepositStateKind
	Txid       string
	AmountMsat uint64
	Reason     string // set for Failed
}
