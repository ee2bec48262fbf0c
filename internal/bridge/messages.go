// Package bridge carries typed messages from the core to the single
// presentation-layer consumer
package bridge

import (
	"github.com/google/uuid"
	"github.com/neogan74/fedbridge/internal/persistence"
)

// PaymentMethod tags which rail a success message refers to
type PaymentMethod string

const (
	MethodLightning PaymentMethod = "lightning"
	MethodOnchain   PaymentMethod = "onchain"
)

// CoreMsg is the tagged union of messages the core emits to the UI
type CoreMsg interface {
	// Type returns a stable name for the message variant
	Type() string
}

// BalanceUpdated reports the federation balance after a successful
// operation
type BalanceUpdated struct {
	AmountMsat uint64 `json:"amount_msat"`
}

func (BalanceUpdated) Type() string { return "balance_updated" }

// TransactionHistoryUpdated carries a fresh read of the full history
type TransactionHistoryUpdated struct {
	History persistence.History `json:"history"`
}

func (TransactionHistoryUpdated) Type() string { return "transaction_history_updated" }

// ReceiveSuccess reports an incoming payment or deposit. For onchain
// deposits it may be provisional: emitted when the transaction is seen,
// before it is claimed.
type ReceiveSuccess struct {
	Method PaymentMethod `json:"method"`
	Txid   string        `json:"txid,omitempty"`
}

func (ReceiveSuccess) Type() string { return "receive_success" }

// ReceiveFailed reports a failed incoming payment with its reason
type ReceiveFailed struct {
	Reason string `json:"reason"`
}

func (ReceiveFailed) Type() string { return "receive_failed" }

// SendSuccess reports a completed outgoing payment
type SendSuccess struct {
	Method   PaymentMethod `json:"method"`
	Preimage [32]byte      `json:"preimage,omitempty"`
	Txid     string        `json:"txid,omitempty"`
}

func (SendSuccess) Type() string { return "send_success" }

// SendFailure reports a failed outgoing payment with its reason
type SendFailure struct {
	Reason string `json:"reason"`
}

func (SendFailure) Type() string { return "send_failure" }

// Msg correlates a core message to the caller-supplied id of the UI
// interaction that initiated the operation, when there is one
type Msg struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Payload CoreMsg    `json:"payload"`
}

// CoreMsgFor builds a correlated message
func CoreMsgFor(id uuid.UUID, payload CoreMsg) Msg {
	return Msg{ID: &id, Payload: payload}
}
