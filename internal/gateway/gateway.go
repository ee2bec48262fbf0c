// Package gateway selects a lightning routing peer from a federation's
// gateway registry
package gateway

import (
	"context"
	"errors"
)

// ErrNoGateway is returned when no registry candidate resolves to a
// usable routing handle
var ErrNoGateway = errors.New("no gateway available")

// FeeSchedule is a gateway's advertised routing fee structure
type FeeSchedule struct {
	BaseMsat               uint64 `json:"base_msat"`
	ProportionalMillionths uint64 `json:"proportional_millionths"`
}

// Candidate is one entry of the live gateway registry. Candidates are
// transient; they are sourced fresh from the protocol client on each
// selection call.
type Candidate struct {
	GatewayID               string      `json:"gateway_id"`
	Vetted                  bool        `json:"vetted"`
	Fees                    FeeSchedule `json:"fees"`
	SupportsPrivatePayments bool        `json:"supports_private_payments"`
}

// Gateway is a resolved routing handle
type Gateway struct {
	GatewayID               string      `json:"gateway_id"`
	Fees                    FeeSchedule `json:"fees"`
	SupportsPrivatePayments bool        `json:"supports_private_payments"`
}

// Registry is the protocol client's view of the federation's gateways
type Registry interface {
	// ListGateways returns the current registry contents
	ListGateways(ctx context.Context) ([]Candidate, error)
	// SelectGateway resolves a candidate to a usable routing handle.
	// A nil gateway without error means the candidate is not usable.
	SelectGateway(ctx context.Context, gatewayID string) (*Gateway, error)
}
