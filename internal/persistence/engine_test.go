package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neogan74/fedbridge/internal/logger"
)

func testEngines(t *testing.T) map[string]Engine {
	t.Helper()
	log := logger.NewFromConfig("error", "text")

	badgerEngine, err := NewBadgerEngine(t.TempDir(), true, log)
	if err != nil {
		t.Fatalf("Failed to create BadgerEngine: %v", err)
	}
	t.Cleanup(func() { _ = badgerEngine.Close() })

	return map[string]Engine{
		"memory": NewMemoryEngine(),
		"badger": badgerEngine,
	}
}

func TestEngine_FederationBlobs(t *testing.T) {
	for name, engine := range testEngines(t) {
		t.Run(name, func(t *testing.T) {
			// Absent federation reads as nil without error
			value, err := engine.GetFederationValue("fed-1")
			if err != nil {
				t.Fatalf("GetFederationValue failed: %v", err)
			}
			if value != nil {
				t.Errorf("expected nil for absent federation, got %v", value)
			}

			if err := engine.InsertNewFederation("fed-1", []byte{}); err != nil {
				t.Fatalf("InsertNewFederation failed: %v", err)
			}

			// Second insert must fail
			err = engine.InsertNewFederation("fed-1", []byte("other"))
			if !errors.Is(err, ErrFederationExists) {
				t.Errorf("expected ErrFederationExists, got %v", err)
			}

			// Full overwrite
			if err := engine.UpdateFederationData("fed-1", []byte("blob-v2")); err != nil {
				t.Fatalf("UpdateFederationData failed: %v", err)
			}
			value, err = engine.GetFederationValue("fed-1")
			if err != nil {
				t.Fatalf("GetFederationValue failed: %v", err)
			}
			if string(value) != "blob-v2" {
				t.Errorf("expected blob-v2, got %s", value)
			}

			ids, err := engine.ListFederations()
			if err != nil {
				t.Fatalf("ListFederations failed: %v", err)
			}
			if len(ids) != 1 || ids[0] != "fed-1" {
				t.Errorf("expected [fed-1], got %v", ids)
			}
		})
	}
}

func TestEngine_OperationRecords(t *testing.T) {
	for name, engine := range testEngines(t) {
		t.Run(name, func(t *testing.T) {
			rec := OperationRecord{
				OperationID: "op-1",
				MsgID:       uuid.New(),
				Kind:        KindLightningPay,
				Status:      StatusPending,
			}
			if err := engine.CreateOperationRecord(rec); err != nil {
				t.Fatalf("CreateOperationRecord failed: %v", err)
			}

			got, err := engine.GetOperationRecord("op-1")
			if err != nil {
				t.Fatalf("GetOperationRecord failed: %v", err)
			}
			if got.Status != StatusPending || got.Kind != KindLightningPay {
				t.Errorf("unexpected record: %+v", got)
			}

			var preimage [32]byte
			preimage[0] = 0xab
			if err := engine.SetLightningPaymentPreimage("op-1", preimage); err != nil {
				t.Fatalf("SetLightningPaymentPreimage failed: %v", err)
			}

			got, err = engine.GetOperationRecord("op-1")
			if err != nil {
				t.Fatalf("GetOperationRecord failed: %v", err)
			}
			if got.Status != StatusSuccess {
				t.Errorf("expected success status, got %s", got.Status)
			}
			if got.Preimage != EncodePreimage(preimage) {
				t.Errorf("unexpected preimage: %s", got.Preimage)
			}

			// Mutating a missing record fails with ErrRecordNotFound
			err = engine.MarkLnReceiveAsFailed("op-missing")
			if !errors.Is(err, ErrRecordNotFound) {
				t.Errorf("expected ErrRecordNotFound, got %v", err)
			}
		})
	}
}

func TestEngine_OnchainReceivePartialThenConfirmed(t *testing.T) {
	for name, engine := range testEngines(t) {
		t.Run(name, func(t *testing.T) {
			rec := OperationRecord{
				OperationID: "op-deposit",
				MsgID:       uuid.New(),
				Kind:        KindOnchainReceive,
				Status:      StatusPending,
			}
			if err := engine.CreateOperationRecord(rec); err != nil {
				t.Fatalf("CreateOperationRecord failed: %v", err)
			}

			// A detected deposit stores txid and amount but stays pending
			if err := engine.SetOnchainReceiveTxid("op-deposit", "txid-1", 21_000_000, 0); err != nil {
				t.Fatalf("SetOnchainReceiveTxid failed: %v", err)
			}
			got, err := engine.GetOperationRecord("op-deposit")
			if err != nil {
				t.Fatalf("GetOperationRecord failed: %v", err)
			}
			if got.Status != StatusPending {
				t.Errorf("expected pending after txid set, got %s", got.Status)
			}
			if got.Txid != "txid-1" || got.AmountMsat != 21_000_000 {
				t.Errorf("unexpected record: %+v", got)
			}

			if err := engine.MarkOnchainReceiveAsConfirmed("op-deposit"); err != nil {
				t.Fatalf("MarkOnchainReceiveAsConfirmed failed: %v", err)
			}
			got, err = engine.GetOperationRecord("op-deposit")
			if err != nil {
				t.Fatalf("GetOperationRecord failed: %v", err)
			}
			if got.Status != StatusSuccess {
				t.Errorf("expected success after confirm, got %s", got.Status)
			}
		})
	}
}

func TestEngine_TransactionHistoryOrder(t *testing.T) {
	for name, engine := range testEngines(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Now().Add(-time.Hour)
			for i, id := range []OperationID{"op-a", "op-b", "op-c"} {
				rec := OperationRecord{
					OperationID: id,
					MsgID:       uuid.New(),
					Kind:        KindLightningReceive,
					Status:      StatusPending,
					CreatedAt:   base.Add(time.Duration(i) * time.Minute),
				}
				if err := engine.CreateOperationRecord(rec); err != nil {
					t.Fatalf("CreateOperationRecord failed: %v", err)
				}
			}

			history, err := engine.GetTransactionHistory()
			if err != nil {
				t.Fatalf("GetTransactionHistory failed: %v", err)
			}
			if len(history) != 3 {
				t.Fatalf("expected 3 records, got %d", len(history))
			}
			// Newest first
			if history[0].OperationID != "op-c" || history[2].OperationID != "op-a" {
				t.Errorf("unexpected history order: %v, %v, %v",
					history[0].OperationID, history[1].OperationID, history[2].OperationID)
			}
		})
	}
}

func TestNewEngine_Factory(t *testing.T) {
	log := logger.NewFromConfig("error", "text")

	engine, err := NewEngine(Config{Type: "memory"}, log)
	if err != nil {
		t.Fatalf("factory failed for memory: %v", err)
	}
	if _, ok := engine.(*MemoryEngine); !ok {
		t.Errorf("expected MemoryEngine, got %T", engine)
	}

	_, err = NewEngine(Config{Type: "postgres"}, log)
	if err == nil {
		t.Error("expected error for unsupported engine type")
	}
}
