// Package reconcile drains per-operation lifecycle state streams and
// applies persistence and UI side effects exactly once per meaningful
// transition
package reconcile

// Class is the non-terminal/terminal discriminant of a lifecycle event
type Class int

const (
	// Progress is a non-terminal transition; the stream continues
	Progress Class = iota
	// Succeeded is a terminal successful outcome
	Succeeded
	// Failed is a terminal failed outcome
	Failed
)

// LifecycleEvent is the internal tagged union all five operation flows
// are adapted into. The reconciliation skeleton only ever sees this
// shape; the collaborator's native states are converted at the boundary.
type LifecycleEvent struct {
	Class Class

	// Reason carries the reported failure reason for Failed events
	Reason string

	// Preimage carries the payment preimage for lightning successes
	Preimage    [32]byte
	HasPreimage bool

	// Txid and AmountMsat carry onchain transaction details
	Txid       string
	AmountMsat uint64
	FeeMsat    uint64

	// Announce marks a progress event that should surface to the UI
	// and persist a partial record (a deposit seen onchain but not yet
	// claimed). Plain progress events are logged only.
	Announce bool

	// FailureAsReceive routes a failure to the receive-side UI message
	// even for a send-side operation. Funding failures of internal
	// payments report this way.
	FailureAsReceive bool
}

// Terminal reports whether the event ends the operation's stream
func (e LifecycleEvent) Terminal() bool {
	return e.Class != Progress
}
