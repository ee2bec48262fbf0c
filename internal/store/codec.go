package store

import (
	"encoding/json"
	"fmt"
)

// Pair is one key-value entry of a federation snapshot
type Pair struct {
	Key   []byte `json:"k"`
	Value []byte `json:"v"`
}

// encodeSnapshot serializes the full ordered pair list into the opaque
// blob stored per federation. The format only needs round-trip fidelity;
// it is not part of any external contract.
func encodeSnapshot(pairs []Pair) ([]byte, error) {
	blob, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return blob, nil
}

func decodeSnapshot(blob []byte) ([]Pair, error) {
	var pairs []Pair
	if err := json.Unmarshal(blob, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return pairs, nil
}
