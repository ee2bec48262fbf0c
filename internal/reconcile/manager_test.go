package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neogan74/fedbridge/internal/bridge"
	"github.com/neogan74/fedbridge/internal/fedimint"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/persistence"
)

type fixedBalance struct {
	amountMsat uint64
	err        error
}

func (f fixedBalance) Balance(ctx context.Context) (uint64, error) {
	return f.amountMsat, f.err
}

func testManager(t *testing.T) (*Manager, *persistence.MemoryEngine, *bridge.Channel) {
	t.Helper()
	engine := persistence.NewMemoryEngine()
	channel := bridge.NewChannel(16)
	log := logger.NewFromConfig("error", "json")
	return NewManager(engine, channel, fixedBalance{amountMsat: 42_000}, log), engine, channel
}

func seedRecord(t *testing.T, engine persistence.Engine, id persistence.OperationID, kind persistence.OperationKind) uuid.UUID {
	t.Helper()
	msgID := uuid.New()
	err := engine.CreateOperationRecord(persistence.OperationRecord{
		OperationID: id,
		MsgID:       msgID,
		Kind:        kind,
		Status:      persistence.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateOperationRecord() error = %v", err)
	}
	return msgID
}

func nextMsg(t *testing.T, channel *bridge.Channel) bridge.Msg {
	t.Helper()
	select {
	case msg := <-channel.Messages():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bridge message")
		return bridge.Msg{}
	}
}

func waitIdle(t *testing.T, m *Manager) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.Active() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("reconciler still has %d active tasks", m.Active())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLightningReceiveSuccess(t *testing.T) {
	m, engine, channel := testManager(t)
	opID := persistence.OperationID("ln-recv-1")
	msgID := seedRecord(t, engine, opID, persistence.KindLightningReceive)

	states := make(chan fedimint.LnReceiveState, 4)
	if err := m.SpawnLightningReceive(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnLightningReceive() error = %v", err)
	}

	states <- fedimint.LnReceiveState{Kind: fedimint.LnReceiveCreated}
	states <- fedimint.LnReceiveState{Kind: fedimint.LnReceiveFunded}
	states <- fedimint.LnReceiveState{Kind: fedimint.LnReceiveClaimed}

	msg := nextMsg(t, channel)
	if msg.ID == nil || *msg.ID != msgID {
		t.Errorf("message id = %v, want %v", msg.ID, msgID)
	}
	success, ok := msg.Payload.(bridge.ReceiveSuccess)
	if !ok {
		t.Fatalf("payload = %T, want ReceiveSuccess", msg.Payload)
	}
	if success.Method != bridge.MethodLightning {
		t.Errorf("method = %q, want lightning", success.Method)
	}

	balance, ok := nextMsg(t, channel).Payload.(bridge.BalanceUpdated)
	if !ok {
		t.Fatal("expected BalanceUpdated after success")
	}
	if balance.AmountMsat != 42_000 {
		t.Errorf("balance = %d, want 42000", balance.AmountMsat)
	}
	if _, ok := nextMsg(t, channel).Payload.(bridge.TransactionHistoryUpdated); !ok {
		t.Fatal("expected TransactionHistoryUpdated after balance")
	}

	waitIdle(t, m)
	rec, err := engine.GetOperationRecord(opID)
	if err != nil {
		t.Fatalf("GetOperationRecord() error = %v", err)
	}
	if rec.Status != persistence.StatusSuccess {
		t.Errorf("status = %q, want success", rec.Status)
	}
}

func TestLightningPaySuccessPersistsPreimage(t *testing.T) {
	m, engine, channel := testManager(t)
	opID := persistence.OperationID("ln-pay-1")
	msgID := seedRecord(t, engine, opID, persistence.KindLightningPay)

	states := make(chan fedimint.LnPayState, 2)
	if err := m.SpawnLightningPay(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnLightningPay() error = %v", err)
	}

	var preimage [32]byte
	preimage[0] = 0xab
	preimage[31] = 0xcd
	states <- fedimint.LnPayState{Kind: fedimint.LnPayFunded}
	states <- fedimint.LnPayState{Kind: fedimint.LnPaySuccess, Preimage: preimage}

	success, ok := nextMsg(t, channel).Payload.(bridge.SendSuccess)
	if !ok {
		t.Fatal("expected SendSuccess")
	}
	if success.Preimage != preimage {
		t.Error("preimage not carried through to the UI message")
	}

	waitIdle(t, m)
	rec, err := engine.GetOperationRecord(opID)
	if err != nil {
		t.Fatalf("GetOperationRecord() error = %v", err)
	}
	if rec.Status != persistence.StatusSuccess {
		t.Errorf("status = %q, want success", rec.Status)
	}
	if rec.Preimage != persistence.EncodePreimage(preimage) {
		t.Errorf("stored preimage = %q, want %q", rec.Preimage, persistence.EncodePreimage(preimage))
	}
}

func TestLightningPayFailure(t *testing.T) {
	m, engine, channel := testManager(t)
	opID := persistence.OperationID("ln-pay-2")
	msgID := seedRecord(t, engine, opID, persistence.KindLightningPay)

	states := make(chan fedimint.LnPayState, 1)
	if err := m.SpawnLightningPay(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnLightningPay() error = %v", err)
	}

	states <- fedimint.LnPayState{Kind: fedimint.LnPayCanceled}

	failure, ok := nextMsg(t, channel).Payload.(bridge.SendFailure)
	if !ok {
		t.Fatal("expected SendFailure for a canceled outgoing payment")
	}
	if failure.Reason == "" {
		t.Error("failure reason is empty")
	}

	waitIdle(t, m)
	rec, err := engine.GetOperationRecord(opID)
	if err != nil {
		t.Fatalf("GetOperationRecord() error = %v", err)
	}
	if rec.Status != persistence.StatusFailed {
		t.Errorf("status = %q, want failed", rec.Status)
	}

	// Failure does not trigger balance or history refresh
	select {
	case msg := <-channel.Messages():
		t.Errorf("unexpected extra message after failure: %T", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInternalPayFundingFailureReportsAsReceive(t *testing.T) {
	m, engine, channel := testManager(t)
	opID := persistence.OperationID("int-pay-1")
	msgID := seedRecord(t, engine, opID, persistence.KindInternalPay)

	states := make(chan fedimint.InternalPayState, 1)
	if err := m.SpawnInternalPay(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnInternalPay() error = %v", err)
	}

	states <- fedimint.InternalPayState{Kind: fedimint.InternalPayFundingFailed, Reason: "insufficient funds"}

	if _, ok := nextMsg(t, channel).Payload.(bridge.ReceiveFailed); !ok {
		t.Fatal("funding failure must surface as ReceiveFailed")
	}
	waitIdle(t, m)
}

func TestOnchainPaySuccess(t *testing.T) {
	m, engine, channel := testManager(t)
	opID := persistence.OperationID("withdraw-1")
	msgID := seedRecord(t, engine, opID, persistence.KindOnchainPay)

	states := make(chan fedimint.WithdrawState, 2)
	if err := m.SpawnOnchainPay(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnOnchainPay() error = %v", err)
	}

	states <- fedimint.WithdrawState{Kind: fedimint.WithdrawCreated}
	states <- fedimint.WithdrawState{Kind: fedimint.WithdrawSucceeded, Txid: "deadbeef"}

	success, ok := nextMsg(t, channel).Payload.(bridge.SendSuccess)
	if !ok {
		t.Fatal("expected SendSuccess")
	}
	if success.Method != bridge.MethodOnchain || success.Txid != "deadbeef" {
		t.Errorf("got method=%q txid=%q", success.Method, success.Txid)
	}

	waitIdle(t, m)
	rec, err := engine.GetOperationRecord(opID)
	if err != nil {
		t.Fatalf("GetOperationRecord() error = %v", err)
	}
	if rec.Txid != "deadbeef" {
		t.Errorf("stored txid = %q, want deadbeef", rec.Txid)
	}
}

func TestOnchainReceiveDetectedThenClaimed(t *testing.T) {
	m, engine, channel := testManager(t)
	opID := persistence.OperationID("deposit-1")
	msgID := seedRecord(t, engine, opID, persistence.KindOnchainReceive)

	states := make(chan fedimint.DepositState, 4)
	if err := m.SpawnOnchainReceive(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnOnchainReceive() error = %v", err)
	}

	states <- fedimint.DepositState{Kind: fedimint.DepositWaitingForTransaction}
	states <- fedimint.DepositState{Kind: fedimint.DepositWaitingForConfirmation, Txid: "feedface", AmountMsat: 250_000}

	// Detection: provisional success plus a history refresh, no balance
	provisional, ok := nextMsg(t, channel).Payload.(bridge.ReceiveSuccess)
	if !ok {
		t.Fatal("expected provisional ReceiveSuccess on detection")
	}
	if provisional.Txid != "feedface" {
		t.Errorf("provisional txid = %q, want feedface", provisional.Txid)
	}
	if _, ok := nextMsg(t, channel).Payload.(bridge.TransactionHistoryUpdated); !ok {
		t.Fatal("expected history refresh after detection")
	}

	rec, err := engine.GetOperationRecord(opID)
	if err != nil {
		t.Fatalf("GetOperationRecord() error = %v", err)
	}
	if rec.Status != persistence.StatusPending {
		t.Errorf("status after detection = %q, want pending", rec.Status)
	}
	if rec.Txid != "feedface" || rec.AmountMsat != 250_000 {
		t.Errorf("partial record = txid %q amount %d", rec.Txid, rec.AmountMsat)
	}

	states <- fedimint.DepositState{Kind: fedimint.DepositConfirmed, Txid: "feedface", AmountMsat: 250_000}
	states <- fedimint.DepositState{Kind: fedimint.DepositClaimed, Txid: "feedface", AmountMsat: 250_000}

	if _, ok := nextMsg(t, channel).Payload.(bridge.ReceiveSuccess); !ok {
		t.Fatal("expected final ReceiveSuccess once claimed")
	}
	if _, ok := nextMsg(t, channel).Payload.(bridge.BalanceUpdated); !ok {
		t.Fatal("expected BalanceUpdated once claimed")
	}
	if _, ok := nextMsg(t, channel).Payload.(bridge.TransactionHistoryUpdated); !ok {
		t.Fatal("expected history refresh once claimed")
	}

	waitIdle(t, m)
	rec, err = engine.GetOperationRecord(opID)
	if err != nil {
		t.Fatalf("GetOperationRecord() error = %v", err)
	}
	if rec.Status != persistence.StatusSuccess {
		t.Errorf("final status = %q, want success", rec.Status)
	}
}

func TestSpawnDuplicateOperation(t *testing.T) {
	m, engine, _ := testManager(t)
	opID := persistence.OperationID("dup-1")
	msgID := seedRecord(t, engine, opID, persistence.KindLightningReceive)

	states := make(chan fedimint.LnReceiveState)
	if err := m.SpawnLightningReceive(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("first spawn error = %v", err)
	}
	if err := m.SpawnLightningReceive(context.Background(), opID, msgID, states); err == nil {
		t.Fatal("second spawn for the same operation must fail")
	}

	m.CancelAll()
	m.Wait()
}

func TestCancelStopsTask(t *testing.T) {
	m, engine, _ := testManager(t)
	opID := persistence.OperationID("cancel-1")
	msgID := seedRecord(t, engine, opID, persistence.KindLightningReceive)

	states := make(chan fedimint.LnReceiveState)
	if err := m.SpawnLightningReceive(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnLightningReceive() error = %v", err)
	}
	if m.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", m.Active())
	}

	if !m.Cancel(opID) {
		t.Fatal("Cancel() = false for a running task")
	}
	waitIdle(t, m)

	if m.Cancel(opID) {
		t.Error("Cancel() = true for a finished task")
	}
}

func TestStreamClosedWithoutTerminalState(t *testing.T) {
	m, engine, _ := testManager(t)
	opID := persistence.OperationID("eof-1")
	msgID := seedRecord(t, engine, opID, persistence.KindOnchainPay)

	states := make(chan fedimint.WithdrawState, 1)
	if err := m.SpawnOnchainPay(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnOnchainPay() error = %v", err)
	}

	states <- fedimint.WithdrawState{Kind: fedimint.WithdrawCreated}
	close(states)

	waitIdle(t, m)
	rec, err := engine.GetOperationRecord(opID)
	if err != nil {
		t.Fatalf("GetOperationRecord() error = %v", err)
	}
	if rec.Status != persistence.StatusPending {
		t.Errorf("status = %q, want pending after a truncated stream", rec.Status)
	}
}

// brokenRecordsEngine simulates record-write failures while still
// serving federation blobs and history
type brokenRecordsEngine struct {
	persistence.Engine
}

func (brokenRecordsEngine) MarkLnReceiveAsSuccess(persistence.OperationID) error {
	return errors.New("disk full")
}

func TestRecordPersistFailureStillNotifiesUI(t *testing.T) {
	engine := persistence.NewMemoryEngine()
	channel := bridge.NewChannel(16)
	log := logger.NewFromConfig("error", "json")
	m := NewManager(brokenRecordsEngine{engine}, channel, fixedBalance{amountMsat: 7}, log)

	opID := persistence.OperationID("broken-1")
	msgID := seedRecord(t, engine, opID, persistence.KindLightningReceive)

	states := make(chan fedimint.LnReceiveState, 1)
	if err := m.SpawnLightningReceive(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnLightningReceive() error = %v", err)
	}
	states <- fedimint.LnReceiveState{Kind: fedimint.LnReceiveClaimed}

	if _, ok := nextMsg(t, channel).Payload.(bridge.ReceiveSuccess); !ok {
		t.Fatal("UI must still hear about the success")
	}
	waitIdle(t, m)
}

func TestClosedBridgeAbortsTask(t *testing.T) {
	m, engine, channel := testManager(t)
	opID := persistence.OperationID("closed-1")
	msgID := seedRecord(t, engine, opID, persistence.KindLightningReceive)

	channel.Close()

	states := make(chan fedimint.LnReceiveState, 1)
	if err := m.SpawnLightningReceive(context.Background(), opID, msgID, states); err != nil {
		t.Fatalf("SpawnLightningReceive() error = %v", err)
	}
	states <- fedimint.LnReceiveState{Kind: fedimint.LnReceiveClaimed}

	waitIdle(t, m)
}
