package gateway

import (
	"context"

	"github.com/neogan74/fedbridge/internal/metrics"
)

// Fee thresholds a candidate must meet to be preferred in the second
// selection pass. Kept exactly as observed in production behavior even
// though the direction reads surprising; see DESIGN.md before changing.
const (
	preferredBaseMsat               = 1_000
	preferredProportionalMillionths = 100
)

// Select picks a routing gateway from the live registry. Scan order is
// the registry's order, so selection is deterministic for a fixed
// registry and fixed resolve outcomes:
//
//  1. the first vetted candidate that resolves wins immediately
//  2. otherwise, among candidates meeting the fee thresholds, the last
//     resolvable one wins, except that a selection supporting private
//     payments is never displaced by one that does not
//  3. otherwise the first resolvable candidate of any kind wins
func Select(ctx context.Context, registry Registry) (*Gateway, error) {
	candidates, err := registry.ListGateways(ctx)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		if !candidate.Vetted {
			continue
		}
		if gw := resolve(ctx, registry, candidate.GatewayID); gw != nil {
			metrics.GatewaySelectionsTotal.WithLabelValues("vetted").Inc()
			return gw, nil
		}
	}

	var selected *Gateway
	for _, candidate := range candidates {
		fees := candidate.Fees
		if fees.BaseMsat < preferredBaseMsat || fees.ProportionalMillionths < preferredProportionalMillionths {
			continue
		}
		gw := resolve(ctx, registry, candidate.GatewayID)
		if gw == nil {
			continue
		}
		if gw.SupportsPrivatePayments || selected == nil {
			selected = gw
		}
	}
	if selected != nil {
		metrics.GatewaySelectionsTotal.WithLabelValues("fee_threshold").Inc()
		return selected, nil
	}

	for _, candidate := range candidates {
		if gw := resolve(ctx, registry, candidate.GatewayID); gw != nil {
			metrics.GatewaySelectionsTotal.WithLabelValues("fallback").Inc()
			return gw, nil
		}
	}

	metrics.GatewaySelectionsTotal.WithLabelValues("none").Inc()
	return nil, ErrNoGateway
}

func resolve(ctx context.Context, registry Registry, gatewayID string) *Gateway {
	gw, err := registry.SelectGateway(ctx, gatewayID)
	if err != nil {
		return nil
	}
	return gw
}
