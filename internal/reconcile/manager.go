package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/neogan74/fedbridge/internal/bridge"
	"github.com/neogan74/fedbridge/internal/fedimint"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/metrics"
	"github.com/neogan74/fedbridge/internal/persistence"
)

// BalanceSource queries the federation's current balance after a
// successful operation
type BalanceSource interface {
	Balance(ctx context.Context) (uint64, error)
}

// Manager owns one reconciler task per in-flight operation. Tasks are
// registered under their operation id with a cancellation handle, so
// reconciliation is bounded in lifetime and observable for cleanup.
type Manager struct {
	engine  persistence.Engine
	channel *bridge.Channel
	balance BalanceSource
	log     logger.Logger

	mu    sync.Mutex
	tasks map[persistence.OperationID]*task
	wg    sync.WaitGroup
}

type task struct {
	cancel context.CancelFunc
}

// NewManager creates a reconciler manager writing through the given
// engine and bridge channel
func NewManager(engine persistence.Engine, channel *bridge.Channel, balance BalanceSource, log logger.Logger) *Manager {
	return &Manager{
		engine:  engine,
		channel: channel,
		balance: balance,
		log:     log,
		tasks:   make(map[persistence.OperationID]*task),
	}
}

// SpawnLightningReceive reconciles an incoming lightning payment
func (m *Manager) SpawnLightningReceive(ctx context.Context, operationID persistence.OperationID, msgID uuid.UUID, states <-chan fedimint.LnReceiveState) error {
	return spawn(m, ctx, operationID, msgID, persistence.KindLightningReceive, states, adaptLnReceive)
}

// SpawnLightningPay reconciles an outgoing lightning payment
func (m *Manager) SpawnLightningPay(ctx context.Context, operationID persistence.OperationID, msgID uuid.UUID, states <-chan fedimint.LnPayState) error {
	return spawn(m, ctx, operationID, msgID, persistence.KindLightningPay, states, adaptLnPay)
}

// SpawnInternalPay reconciles a payment settled inside the federation
func (m *Manager) SpawnInternalPay(ctx context.Context, operationID persistence.OperationID, msgID uuid.UUID, states <-chan fedimint.InternalPayState) error {
	return spawn(m, ctx, operationID, msgID, persistence.KindInternalPay, states, adaptInternalPay)
}

// SpawnOnchainPay reconciles an onchain withdrawal
func (m *Manager) SpawnOnchainPay(ctx context.Context, operationID persistence.OperationID, msgID uuid.UUID, states <-chan fedimint.WithdrawState) error {
	return spawn(m, ctx, operationID, msgID, persistence.KindOnchainPay, states, adaptOnchainPay)
}

// SpawnOnchainReceive reconciles an onchain deposit
func (m *Manager) SpawnOnchainReceive(ctx context.Context, operationID persistence.OperationID, msgID uuid.UUID, states <-chan fedimint.DepositState) error {
	return spawn(m, ctx, operationID, msgID, persistence.KindOnchainReceive, states, adaptOnchainReceive)
}

// spawn registers and starts one reconciler task. Every state stream is
// consumed by exactly one task; spawning a second task for the same
// operation id is an error.
func spawn[T any](m *Manager, ctx context.Context, operationID persistence.OperationID, msgID uuid.UUID, kind persistence.OperationKind, states <-chan T, adapt func(T) LifecycleEvent) error {
	taskCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if _, exists := m.tasks[operationID]; exists {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("operation %s already has a reconciler task", operationID)
	}
	m.tasks[operationID] = &task{cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	metrics.ReconcilerTasksActive.Inc()
	log := m.log.WithOperation(string(operationID)).WithFields(logger.String("kind", string(kind)))

	go func() {
		defer func() {
			cancel()
			m.mu.Lock()
			delete(m.tasks, operationID)
			m.mu.Unlock()
			metrics.ReconcilerTasksActive.Dec()
			m.wg.Done()
		}()

		for {
			select {
			case <-taskCtx.Done():
				log.Debug("Reconciler task canceled")
				metrics.OperationsTotal.WithLabelValues(string(kind), "canceled").Inc()
				return
			case state, ok := <-states:
				if !ok {
					log.Warn("State stream ended without a terminal state")
					metrics.OperationsTotal.WithLabelValues(string(kind), "stream_ended").Inc()
					return
				}

				event := adapt(state)
				if err := m.apply(taskCtx, operationID, msgID, kind, event, log); err != nil {
					// A dead bridge channel is fatal to the task
					log.Error("Reconciler task aborted", logger.Error(err))
					metrics.OperationsTotal.WithLabelValues(string(kind), "aborted").Inc()
					return
				}

				if event.Terminal() {
					outcome := "success"
					if event.Class == Failed {
						outcome = "failure"
					}
					metrics.OperationsTotal.WithLabelValues(string(kind), outcome).Inc()
					return
				}
			}
		}
	}()

	return nil
}

// Cancel stops the reconciler task for an operation, if one is running
func (m *Manager) Cancel(operationID persistence.OperationID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[operationID]
	if !ok {
		return false
	}
	t.cancel()
	return true
}

// CancelAll stops every running reconciler task
func (m *Manager) CancelAll() {
	m.mu.Lock()
	for _, t := range m.tasks {
		t.cancel()
	}
	m.mu.Unlock()
}

// Active returns the number of running reconciler tasks
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Wait blocks until every spawned task has finished
func (m *Manager) Wait() {
	m.wg.Wait()
}

// apply performs the side effects of one lifecycle event. Record
// persistence failures are logged and swallowed; the UI is still told.
// Only a failed bridge send is returned, aborting the task.
func (m *Manager) apply(ctx context.Context, operationID persistence.OperationID, msgID uuid.UUID, kind persistence.OperationKind, event LifecycleEvent, log logger.Logger) error {
	switch event.Class {
	case Progress:
		if !event.Announce {
			log.Debug("Operation progress")
			return nil
		}

		// Deposit detected onchain: persist the partial record first,
		// then surface a provisional success and refresh history
		m.persist(log, kind, func() error {
			return m.engine.SetOnchainReceiveTxid(operationID, event.Txid, event.AmountMsat, event.FeeMsat)
		})
		msg := bridge.CoreMsgFor(msgID, bridge.ReceiveSuccess{Method: bridge.MethodOnchain, Txid: event.Txid})
		if err := m.channel.Send(ctx, msg); err != nil {
			return err
		}
		return m.refreshHistory(ctx, msgID, log)

	case Failed:
		log.Error("Operation failed", logger.String("reason", event.Reason))
		m.persist(log, kind, func() error {
			return m.markFailed(operationID, kind)
		})
		return m.channel.Send(ctx, bridge.CoreMsgFor(msgID, m.failureMsg(kind, event)))

	case Succeeded:
		log.Info("Operation succeeded")
		m.persist(log, kind, func() error {
			return m.markSucceeded(operationID, kind, event)
		})
		if err := m.channel.Send(ctx, bridge.CoreMsgFor(msgID, m.successMsg(kind, event))); err != nil {
			return err
		}

		if balance, err := m.balance.Balance(ctx); err != nil {
			log.Error("Could not query balance", logger.Error(err))
		} else {
			msg := bridge.CoreMsgFor(msgID, bridge.BalanceUpdated{AmountMsat: balance})
			if err := m.channel.Send(ctx, msg); err != nil {
				return err
			}
		}
		return m.refreshHistory(ctx, msgID, log)
	}
	return nil
}

func (m *Manager) markFailed(operationID persistence.OperationID, kind persistence.OperationKind) error {
	switch kind {
	case persistence.KindLightningReceive:
		return m.engine.MarkLnReceiveAsFailed(operationID)
	case persistence.KindLightningPay, persistence.KindInternalPay:
		return m.engine.MarkLightningPaymentAsFailed(operationID)
	case persistence.KindOnchainPay:
		return m.engine.MarkOnchainPaymentAsFailed(operationID)
	case persistence.KindOnchainReceive:
		return m.engine.MarkOnchainReceiveAsFailed(operationID)
	}
	return fmt.Errorf("unknown operation kind: %s", kind)
}

func (m *Manager) markSucceeded(operationID persistence.OperationID, kind persistence.OperationKind, event LifecycleEvent) error {
	switch kind {
	case persistence.KindLightningReceive:
		return m.engine.MarkLnReceiveAsSuccess(operationID)
	case persistence.KindLightningPay, persistence.KindInternalPay:
		return m.engine.SetLightningPaymentPreimage(operationID, event.Preimage)
	case persistence.KindOnchainPay:
		return m.engine.SetOnchainPaymentTxid(operationID, event.Txid)
	case persistence.KindOnchainReceive:
		return m.engine.MarkOnchainReceiveAsConfirmed(operationID)
	}
	return fmt.Errorf("unknown operation kind: %s", kind)
}

func (m *Manager) failureMsg(kind persistence.OperationKind, event LifecycleEvent) bridge.CoreMsg {
	receiveSide := kind == persistence.KindLightningReceive || kind == persistence.KindOnchainReceive
	if receiveSide || event.FailureAsReceive {
		return bridge.ReceiveFailed{Reason: event.Reason}
	}
	return bridge.SendFailure{Reason: event.Reason}
}

func (m *Manager) successMsg(kind persistence.OperationKind, event LifecycleEvent) bridge.CoreMsg {
	switch kind {
	case persistence.KindLightningReceive:
		return bridge.ReceiveSuccess{Method: bridge.MethodLightning}
	case persistence.KindOnchainReceive:
		return bridge.ReceiveSuccess{Method: bridge.MethodOnchain, Txid: event.Txid}
	case persistence.KindOnchainPay:
		return bridge.SendSuccess{Method: bridge.MethodOnchain, Txid: event.Txid}
	default:
		return bridge.SendSuccess{Method: bridge.MethodLightning, Preimage: event.Preimage}
	}
}

// persist runs a record write, logging and swallowing any failure
func (m *Manager) persist(log logger.Logger, kind persistence.OperationKind, write func() error) {
	if err := write(); err != nil {
		metrics.RecordPersistFailuresTotal.WithLabelValues(string(kind)).Inc()
		log.Error("Could not persist operation record", logger.Error(err))
	}
}

func (m *Manager) refreshHistory(ctx context.Context, msgID uuid.UUID, log logger.Logger) error {
	history, err := m.engine.GetTransactionHistory()
	if err != nil {
		log.Error("Could not read transaction history", logger.Error(err))
		return nil
	}
	return m.channel.Send(ctx, bridge.CoreMsgFor(msgID, bridge.TransactionHistoryUpdated{History: history}))
}
