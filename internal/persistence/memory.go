package persistence

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryEngine is an in-memory implementation of Engine, used for tests
// and throwaway regtest setups
type MemoryEngine struct {
	mu          sync.RWMutex
	federations map[string][]byte
	records     map[OperationID]OperationRecord
}

// NewMemoryEngine creates a new in-memory persistence engine
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		federations: make(map[string][]byte),
		records:     make(map[OperationID]OperationRecord),
	}
}

func (m *MemoryEngine) GetFederationValue(federationID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.federations[federationID]
	if !ok {
		return nil, nil
	}
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (m *MemoryEngine) InsertNewFederation(federationID string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.federations[federationID]; ok {
		return ErrFederationExists
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.federations[federationID] = stored
	return nil
}

func (m *MemoryEngine) UpdateFederationData(federationID string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	m.federations[federationID] = stored
	return nil
}

func (m *MemoryEngine) ListFederations() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.federations))
	for id := range m.federations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryEngine) CreateOperationRecord(rec OperationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.OperationID == "" {
		return errors.New("operation id must not be empty")
	}
	if _, ok := m.records[rec.OperationID]; ok {
		return fmt.Errorf("operation record %s already exists", rec.OperationID)
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.records[rec.OperationID] = rec
	return nil
}

func (m *MemoryEngine) GetOperationRecord(id OperationID) (*OperationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (m *MemoryEngine) GetTransactionHistory() (History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make(History, 0, len(m.records))
	for _, rec := range m.records {
		history = append(history, rec)
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	return history, nil
}

func (m *MemoryEngine) updateRecord(id OperationID, mutate func(*OperationRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	mutate(&rec)
	rec.UpdatedAt = time.Now()
	m.records[id] = rec
	return nil
}

func (m *MemoryEngine) MarkLnReceiveAsFailed(id OperationID) error {
	return m.updateRecord(id, markFailed)
}

func (m *MemoryEngine) MarkLnReceiveAsSuccess(id OperationID) error {
	return m.updateRecord(id, markSuccess)
}

func (m *MemoryEngine) MarkLightningPaymentAsFailed(id OperationID) error {
	return m.updateRecord(id, markFailed)
}

func (m *MemoryEngine) SetLightningPaymentPreimage(id OperationID, preimage [32]byte) error {
	return m.updateRecord(id, setPreimage(preimage))
}

func (m *MemoryEngine) MarkOnchainPaymentAsFailed(id OperationID) error {
	return m.updateRecord(id, markFailed)
}

func (m *MemoryEngine) SetOnchainPaymentTxid(id OperationID, txid string) error {
	return m.updateRecord(id, setTxidSuccess(txid))
}

func (m *MemoryEngine) MarkOnchainReceiveAsFailed(id OperationID) error {
	return m.updateRecord(id, markFailed)
}

func (m *MemoryEngine) MarkOnchainReceiveAsConfirmed(id OperationID) error {
	return m.updateRecord(id, markSuccess)
}

func (m *MemoryEngine) SetOnchainReceiveTxid(id OperationID, txid string, amountMsat, feeMsat uint64) error {
	return m.updateRecord(id, setTxidPartial(txid, amountMsat, feeMsat))
}

func (m *MemoryEngine) Close() error {
	return nil
}

func (m *MemoryEngine) Backup(path string) error {
	return errors.New("backup not supported for memory engine")
}

func (m *MemoryEngine) Restore(path string) error {
	return errors.New("restore not supported for memory engine")
}

// Shared record mutations, used by every engine implementation

func markFailed(rec *OperationRecord) {
	rec.Status = StatusFailed
}

func markSuccess(rec *OperationRecord) {
	rec.Status = StatusSuccess
}

func setPreimage(preimage [32]byte) func(*OperationRecord) {
	return func(rec *OperationRecord) {
		rec.Status = StatusSuccess
		rec.Preimage = EncodePreimage(preimage)
	}
}

func setTxidSuccess(txid string) func(*OperationRecord) {
	return func(rec *OperationRecord) {
		rec.Status = StatusSuccess
		rec.Txid = txid
	}
}

// setTxidPartial records a detected deposit without resolving the
// operation: the transaction is known but not yet claimed
func setTxidPartial(txid string, amountMsat, feeMsat uint64) func(*OperationRecord) {
	return func(rec *OperationRecord) {
		rec.Txid = txid
		rec.AmountMsat = amountMsat
		rec.FeeMsat = feeMsat
	}
}
