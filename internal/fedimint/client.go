// Package fedimint hosts the federation client shell: durable state
// hydration, protocol client construction and the background gateway
// cache refresh
package fedimint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neogan74/fedbridge/internal/gateway"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/metrics"
	"github.com/neogan74/fedbridge/internal/persistence"
	"github.com/neogan74/fedbridge/internal/store"
)

// NetworkMismatchError is fatal at construction time: the federation
// runs on a different network than the application is configured for
type NetworkMismatchError struct {
	Expected string
	Actual   string
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("federation on network %s, expected %s", e.Actual, e.Expected)
}

// IsNetworkMismatch checks if an error is a network mismatch error
func IsNetworkMismatch(err error) bool {
	var mismatch *NetworkMismatchError
	return errors.As(err, &mismatch)
}

// ErrNotEnoughInfo is returned when neither a local snapshot nor an
// invite code is available to reach the federation
var ErrNotEnoughInfo = errors.New("not enough information to join federation")

// ProtocolClient is the external multi-party protocol implementation.
// It owns the snapshot store as its backing database and serializes its
// own writes per federation.
type ProtocolClient interface {
	gateway.Registry

	FederationID() string
	Network() string
	Balance(ctx context.Context) (uint64, error)
	UpdateGatewayCache(ctx context.Context) error
}

// Connector builds protocol clients against a hydrated snapshot store
type Connector interface {
	// Open resumes an already-joined federation from its local state
	Open(ctx context.Context, st *store.SnapshotStore, rootSecret []byte) (ProtocolClient, error)
	// Join downloads the federation config behind an invite code and
	// joins, initializing the local state
	Join(ctx context.Context, st *store.SnapshotStore, rootSecret []byte, inviteCode string) (ProtocolClient, error)
}

// InviteOrID identifies a federation either by a joinable invite code
// or by the id of an already-joined federation
type InviteOrID struct {
	federationID string
	inviteCode   string
	hasInvite    bool
}

// FromInvite identifies a federation by invite code
func FromInvite(federationID, inviteCode string) InviteOrID {
	return InviteOrID{federationID: federationID, inviteCode: inviteCode, hasInvite: true}
}

// FromID identifies an already-joined federation
func FromID(federationID string) InviteOrID {
	return InviteOrID{federationID: federationID}
}

// FederationID returns the federation id in either case
func (i InviteOrID) FederationID() string {
	return i.federationID
}

// InviteCode returns the invite code when one is present
func (i InviteOrID) InviteCode() (string, bool) {
	return i.inviteCode, i.hasInvite
}

// Options configures federation client construction
type Options struct {
	Network                string
	GatewayRefreshInterval time.Duration
	GatewayCacheTTL        time.Duration
}

// FederationClient wires a protocol client to its durable snapshot
// store and keeps the gateway registry cache warm in the background
type FederationClient struct {
	protocol ProtocolClient
	store    *store.SnapshotStore
	cache    *gateway.Cache
	log      logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New hydrates the federation's snapshot store, constructs the protocol
// client against it (resuming from local state when present, joining via
// invite otherwise), verifies the network and starts the background
// gateway cache refresh loop.
func New(ctx context.Context, engine persistence.Engine, connector Connector, invite InviteOrID, rootSecret []byte, opts Options, log logger.Logger) (*FederationClient, error) {
	federationID := invite.FederationID()
	log = log.WithFields(logger.String("federation_id", federationID))
	log.Info("Initializing federation client")

	st, err := store.Open(engine, federationID, log)
	if err != nil {
		return nil, err
	}

	var protocol ProtocolClient
	if st.Size() > 0 {
		protocol, err = connector.Open(ctx, st, rootSecret)
		if err != nil {
			return nil, fmt.Errorf("could not open federation client: %w", err)
		}
	} else if inviteCode, ok := invite.InviteCode(); ok {
		start := time.Now()
		protocol, err = connector.Join(ctx, st, rootSecret, inviteCode)
		if err != nil {
			return nil, fmt.Errorf("could not join federation: %w", err)
		}
		log.Debug("Joined federation", logger.Duration("took", time.Since(start)))
	} else {
		return nil, ErrNotEnoughInfo
	}

	if protocol.Network() != opts.Network {
		log.Error("Federation network mismatch",
			logger.String("expected", opts.Network),
			logger.String("actual", protocol.Network()))
		return nil, &NetworkMismatchError{Expected: opts.Network, Actual: protocol.Network()}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	client := &FederationClient{
		protocol: protocol,
		store:    st,
		cache:    gateway.NewCache(opts.GatewayCacheTTL),
		log:      log,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go client.refreshGatewayCache(loopCtx, opts.GatewayRefreshInterval)

	log.Debug("Built federation client")
	return client, nil
}

// refreshGatewayCache keeps the registry cache warm. Cancellation is
// cooperative: it is observed between refresh rounds.
func (c *FederationClient) refreshGatewayCache(ctx context.Context, interval time.Duration) {
	defer close(c.done)

	c.refreshOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshOnce(ctx)
		}
	}
}

func (c *FederationClient) refreshOnce(ctx context.Context) {
	start := time.Now()
	if err := c.protocol.UpdateGatewayCache(ctx); err != nil {
		metrics.GatewayCacheRefreshesTotal.WithLabelValues("error").Inc()
		c.log.Error("Could not update gateway cache", logger.Error(err))
		return
	}

	candidates, err := c.protocol.ListGateways(ctx)
	if err != nil {
		metrics.GatewayCacheRefreshesTotal.WithLabelValues("error").Inc()
		c.log.Error("Could not list gateways", logger.Error(err))
		return
	}

	c.cache.Store(candidates)
	metrics.GatewayCacheRefreshesTotal.WithLabelValues("success").Inc()
	c.log.Debug("Refreshed gateway cache",
		logger.Int("gateways", len(candidates)),
		logger.Duration("took", time.Since(start)))
}

// Stop terminates the background refresh loop and waits for it
func (c *FederationClient) Stop() {
	c.cancel()
	<-c.done
}

// Protocol exposes the underlying protocol client
func (c *FederationClient) Protocol() ProtocolClient {
	return c.protocol
}

// Store exposes the federation's snapshot store
func (c *FederationClient) Store() *store.SnapshotStore {
	return c.store
}

// FederationID returns the connected federation's id
func (c *FederationClient) FederationID() string {
	return c.protocol.FederationID()
}

// Network returns the network the federation runs on
func (c *FederationClient) Network() string {
	return c.protocol.Network()
}

// SnapshotSize returns the number of keys in the snapshot mirror
func (c *FederationClient) SnapshotSize() int {
	return c.store.Size()
}

// Balance queries the federation balance in millisatoshis
func (c *FederationClient) Balance(ctx context.Context) (uint64, error) {
	return c.protocol.Balance(ctx)
}

// SelectGateway picks a routing gateway from the live registry
func (c *FederationClient) SelectGateway(ctx context.Context) (*gateway.Gateway, error) {
	return gateway.Select(ctx, c.protocol)
}

// CachedGateways returns the last known registry contents
func (c *FederationClient) CachedGateways() ([]gateway.Candidate, bool) {
	return c.cache.Load()
}
