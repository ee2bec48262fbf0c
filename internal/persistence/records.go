package persistence

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// OperationID is the protocol client's opaque identifier for one
// asynchronous operation (a payment, deposit or withdrawal).
type OperationID string

// OperationKind distinguishes the five payment/deposit flows
type OperationKind string

const (
	KindLightningReceive OperationKind = "lightning_receive"
	KindLightningPay     OperationKind = "lightning_pay"
	KindInternalPay      OperationKind = "internal_pay"
	KindOnchainPay       OperationKind = "onchain_pay"
	KindOnchainReceive   OperationKind = "onchain_receive"
)

// OperationStatus is the persisted outcome of an operation
type OperationStatus string

const (
	StatusPending OperationStatus = "pending"
	StatusSuccess OperationStatus = "success"
	StatusFailed  OperationStatus = "failed"
)

// OperationRecord is one row per protocol operation. Records are created
// when the application initiates an operation and mutated only by the
// reconciler task owning the operation id. They are never deleted.
type OperationRecord struct {
	OperationID OperationID     `json:"operation_id"`
	MsgID       uuid.UUID       `json:"msg_id"`
	Kind        OperationKind   `json:"kind"`
	Status      OperationStatus `json:"status"`
	Preimage    string          `json:"preimage,omitempty"` // hex-encoded 32 bytes
	Txid        string          `json:"txid,omitempty"`
	AmountMsat  uint64          `json:"amount_msat,omitempty"`
	FeeMsat     uint64          `json:"fee_msat,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// History is the full transaction history, newest first
type History []OperationRecord

// EncodePreimage renders a 32-byte preimage for storage
func EncodePreimage(preimage [32]byte) string {
	return hex.EncodeToString(preimage[:])
}
