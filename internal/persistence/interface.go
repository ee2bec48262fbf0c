package persistence

import "errors"

var (
	// ErrFederationExists is returned when inserting a federation that
	// already has a durable record
	ErrFederationExists = errors.New("federation already exists")

	// ErrRecordNotFound is returned when an operation record does not exist
	ErrRecordNotFound = errors.New("operation record not found")
)

// Engine represents a durable storage backend for federation snapshot
// blobs and operation records
type Engine interface {
	// Federation snapshot blobs, one blob per federation id.
	// GetFederationValue returns (nil, nil) when no blob exists.
	GetFederationValue(federationID string) ([]byte, error)
	// InsertNewFederation creates the federation's durable record and
	// fails with ErrFederationExists if one is already present.
	InsertNewFederation(federationID string, value []byte) error
	// UpdateFederationData overwrites the federation's blob in full.
	UpdateFederationData(federationID string, blob []byte) error
	ListFederations() ([]string, error)

	// Operation records
	CreateOperationRecord(rec OperationRecord) error
	GetOperationRecord(id OperationID) (*OperationRecord, error)
	GetTransactionHistory() (History, error)

	MarkLnReceiveAsFailed(id OperationID) error
	MarkLnReceiveAsSuccess(id OperationID) error
	MarkLightningPaymentAsFailed(id OperationID) error
	SetLightningPaymentPreimage(id OperationID, preimage [32]byte) error
	MarkOnchainPaymentAsFailed(id OperationID) error
	SetOnchainPaymentTxid(id OperationID, txid string) error
	MarkOnchainReceiveAsFailed(id OperationID) error
	MarkOnchainReceiveAsConfirmed(id OperationID) error
	SetOnchainReceiveTxid(id OperationID, txid string, amountMsat, feeMsat uint64) error

	// Management
	Close() error
	Backup(path string) error
	Restore(path string) error
}

// Config holds persistence configuration
type Config struct {
	Type       string // "memory", "badger"
	DataDir    string
	BackupDir  string
	SyncWrites bool
}
