package store

import (
	"bytes"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/metrics"
	"github.com/neogan74/fedbridge/internal/persistence"
)

// byteKeyComparator orders mirror keys byte-wise, matching the ordering
// the prefix scans and the serialized pair list rely on
func byteKeyComparator(a, b interface{}) int {
	return bytes.Compare(a.([]byte), b.([]byte))
}

func newMirror() *treemap.Map {
	return treemap.NewWith(byteKeyComparator)
}

func cloneMirror(m *treemap.Map) *treemap.Map {
	clone := newMirror()
	it := m.Iterator()
	for it.Next() {
		clone.Put(it.Key(), it.Value())
	}
	return clone
}

// SnapshotStore mirrors one federation's key-value state in memory and
// flushes full snapshots to the durable engine on commit. The mirror is
// exclusively owned by this instance; all access goes through the mutex,
// so concurrent transactions from multiple goroutines are safe (last
// commit wins, each commit writing the full mirror state).
type SnapshotStore struct {
	engine       persistence.Engine
	federationID string
	log          logger.Logger

	mu     sync.Mutex
	mirror *treemap.Map
}

// Open hydrates a snapshot store for the given federation. If no durable
// blob exists yet, an empty federation record is created immediately so
// subsequent opens observe an initialized federation.
func Open(engine persistence.Engine, federationID string, log logger.Logger) (*SnapshotStore, error) {
	blob, err := engine.GetFederationValue(federationID)
	if err != nil {
		return nil, &InitError{FederationID: federationID, Err: err}
	}

	var pairs []Pair
	if blob == nil {
		if err := engine.InsertNewFederation(federationID, []byte{}); err != nil {
			return nil, &InitError{FederationID: federationID, Err: err}
		}
	} else if len(blob) > 0 {
		pairs, err = decodeSnapshot(blob)
		if err != nil {
			return nil, &InitError{FederationID: federationID, Err: err}
		}
	}

	mirror := newMirror()
	for _, pair := range pairs {
		mirror.Put(pair.Key, pair.Value)
	}

	log.Debug("Hydrated snapshot mirror",
		logger.String("federation_id", federationID),
		logger.Int("keys", mirror.Size()))
	metrics.SnapshotKeys.WithLabelValues(federationID).Set(float64(mirror.Size()))

	return &SnapshotStore{
		engine:       engine,
		federationID: federationID,
		log:          log,
		mirror:       mirror,
	}, nil
}

// FederationID returns the federation this store belongs to
func (s *SnapshotStore) FederationID() string {
	return s.federationID
}

// Begin opens a new transaction over the current mirror state. Dropping
// a transaction without committing discards all of its mutations.
func (s *SnapshotStore) Begin() *Tx {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Tx{
		store:   s,
		working: cloneMirror(s.mirror),
	}
}

// Contents returns the mirror's full ordered pair list
func (s *SnapshotStore) Contents() []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scanPrefix(s.mirror, nil, false)
}

// Size returns the number of keys in the mirror
func (s *SnapshotStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Size()
}

// Tx is a scoped mutation session over the mirror. It operates on its
// own working copy; nothing is visible outside the transaction until
// Commit succeeds.
type Tx struct {
	store     *SnapshotStore
	working   *treemap.Map
	savepoint *treemap.Map
	finished  bool
}

// Insert stores a key-value pair and returns the previous value, if any
func (tx *Tx) Insert(key, value []byte) ([]byte, bool) {
	prev, existed := tx.working.Get(key)
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	tx.working.Put(k, v)
	if !existed {
		return nil, false
	}
	return prev.([]byte), true
}

// Get returns the value for a key within the transaction's view
func (tx *Tx) Get(key []byte) ([]byte, bool) {
	value, ok := tx.working.Get(key)
	if !ok {
		return nil, false
	}
	return value.([]byte), true
}

// Remove deletes a key and returns the previous value, if any
func (tx *Tx) Remove(key []byte) ([]byte, bool) {
	prev, existed := tx.working.Get(key)
	if !existed {
		return nil, false
	}
	tx.working.Remove(key)
	return prev.([]byte), true
}

// FindByPrefix returns all pairs whose key starts with prefix, in
// ascending key order. An empty prefix scans the entire state.
func (tx *Tx) FindByPrefix(prefix []byte) []Pair {
	return scanPrefix(tx.working, prefix, false)
}

// FindByPrefixDescending returns matching pairs in descending key order
func (tx *Tx) FindByPrefixDescending(prefix []byte) []Pair {
	return scanPrefix(tx.working, prefix, true)
}

// RemoveByPrefix deletes every key starting with prefix
func (tx *Tx) RemoveByPrefix(prefix []byte) {
	for _, pair := range scanPrefix(tx.working, prefix, false) {
		tx.working.Remove(pair.Key)
	}
}

// SetSavepoint records the transaction's current state. A later
// SetSavepoint replaces the previous one.
func (tx *Tx) SetSavepoint() {
	tx.savepoint = cloneMirror(tx.working)
}

// RollbackToSavepoint restores the last savepoint, or the state at
// transaction start when no savepoint was set
func (tx *Tx) RollbackToSavepoint() {
	if tx.savepoint != nil {
		tx.working = cloneMirror(tx.savepoint)
		return
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.working = cloneMirror(tx.store.mirror)
}

// Commit serializes the transaction's full post-mutation state and
// writes it to durable storage, overwriting the federation's prior blob.
// The mirror adopts the new state only after the durable write succeeds,
// so a CommitError never leaves the mirror ahead of the durable blob.
func (tx *Tx) Commit() error {
	if tx.finished {
		return ErrTxFinished
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	pairs := scanPrefix(tx.working, nil, false)
	blob, err := encodeSnapshot(pairs)
	if err != nil {
		metrics.SnapshotCommitsTotal.WithLabelValues("encode_error").Inc()
		return &CommitError{FederationID: s.federationID, Err: err}
	}

	if err := s.engine.UpdateFederationData(s.federationID, blob); err != nil {
		metrics.SnapshotCommitsTotal.WithLabelValues("write_error").Inc()
		return &CommitError{FederationID: s.federationID, Err: err}
	}

	s.mirror = tx.working
	tx.finished = true

	metrics.SnapshotCommitsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotKeys.WithLabelValues(s.federationID).Set(float64(s.mirror.Size()))
	metrics.SnapshotBlobBytes.WithLabelValues(s.federationID).Set(float64(len(blob)))

	s.log.Debug("Committed snapshot",
		logger.String("federation_id", s.federationID),
		logger.Int("keys", len(pairs)),
		logger.Int("blob_bytes", len(blob)))

	return nil
}

func scanPrefix(m *treemap.Map, prefix []byte, descending bool) []Pair {
	var pairs []Pair
	it := m.Iterator()

	collect := func() {
		key := it.Key().([]byte)
		if len(prefix) > 0 && !bytes.HasPrefix(key, prefix) {
			return
		}
		pairs = append(pairs, Pair{Key: key, Value: it.Value().([]byte)})
	}

	if descending {
		for it.End(); it.Prev(); {
			collect()
		}
	} else {
		for it.Next() {
			collect()
		}
	}
	return pairs
}
