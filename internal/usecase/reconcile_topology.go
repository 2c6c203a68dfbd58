package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/bindings"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"golang.org/x/sync/errgroup"
)

// TopologyResult reports what one reconciliation pass changed.
type TopologyResult struct {
	Connected   int
	SocketFails int
	// BatchSize is the number of coordination-chain entries corrected
	BatchSize int
	BatchTx   *common.Hash
	// ReadFails counts links whose coordination-chain state could not be read
	ReadFails int
}

// PointersResult reports the chain pointer registration pass.
type PointersResult struct {
	Updated   []string
	ReadFails int
	Tx        *common.Hash
}

// ReconcileTopology diffs desired plug wiring against live state on every
// chain and on the coordination chain.
type ReconcileTopology struct {
	cfg       *config.RuntimeConfig
	store     AddressStore
	reader    ChainReader
	submitter TxSubmitter
	watcher   EnvelopeSigner
	log       *slog.Logger

	last     TopologyResult
	pointers PointersResult
}

// NewReconcileTopology creates a new ReconcileTopology use case
func NewReconcileTopology(
	cfg *config.RuntimeConfig,
	store AddressStore,
	reader ChainReader,
	submitter TxSubmitter,
	watcher EnvelopeSigner,
	log *slog.Logger,
) *ReconcileTopology {
	return &ReconcileTopology{
		cfg:       cfg,
		store:     store,
		reader:    reader,
		submitter: submitter,
		watcher:   watcher,
		log:       log,
	}
}

// LastResult returns the counters of the most recent Reconcile call.
func (uc *ReconcileTopology) LastResult() TopologyResult {
	return uc.last
}

// LastPointers returns the outcome of the most recent ReconcileChainPointers call.
func (uc *ReconcileTopology) LastPointers() PointersResult {
	return uc.pointers
}

// DesiredLinks builds the wiring for the given socket chains: each plug in
// domain.PlugGateways bound to its EVMx gateway through the chain's
// FastSwitchboard, plus topology.yaml links. Links whose addresses are not
// recorded are returned as state-mismatch errors and left out.
func (uc *ReconcileTopology) DesiredLinks(record domain.DeploymentRecord, chains []*config.ChainConfig) ([]domain.AppGatewayConfig, []error) {
	var (
		links []domain.AppGatewayConfig
		errs  []error
	)
	evmx := record.Entry(uc.cfg.Registry.EVMxSlug)

	plugs := lo.Keys(domain.PlugGateways)
	sort.Strings(plugs)

	for _, chain := range chains {
		if chain.IsEVMx {
			continue
		}
		entry := record.Entry(chain.Slug)
		for _, plugName := range plugs {
			link, err := buildLink(chain.Slug, entry, evmx, plugName, domain.PlugGateways[plugName], domain.FastSwitchboard)
			if err != nil {
				errs = append(errs, fmt.Errorf("chain %s plug %s: %w", chain.Name, plugName, err))
				continue
			}
			links = append(links, link)
		}
	}

	if uc.cfg.Topology != nil {
		for _, lc := range uc.cfg.Topology.Links {
			chain, ok := lo.Find(chains, func(c *config.ChainConfig) bool { return c.Name == lc.Chain })
			if !ok {
				uc.log.Debug("skip: topology link chain not selected", "chain", lc.Chain, "plug", lc.Plug)
				continue
			}
			switchboard := lc.Switchboard
			if switchboard == "" {
				switchboard = domain.FastSwitchboard
			}
			link, err := buildLink(chain.Slug, record.Entry(chain.Slug), evmx, lc.Plug, lc.AppGateway, switchboard)
			if err != nil {
				errs = append(errs, fmt.Errorf("chain %s plug %s: %w", chain.Name, lc.Plug, err))
				continue
			}
			links = append(links, link)
		}
	}

	return dedupeLinks(links), errs
}

// buildLink resolves names against the ledger. Plug and switchboard may also
// be hex addresses; the gateway may be a hex identifier.
func buildLink(slug domain.ChainSlug, entry, evmx *domain.ChainTopologyEntry, plug, gateway, switchboard string) (domain.AppGatewayConfig, error) {
	plugAddr, err := resolveAddress(entry, plug)
	if err != nil {
		return domain.AppGatewayConfig{}, err
	}
	sbAddr, err := resolveAddress(entry, switchboard)
	if err != nil {
		return domain.AppGatewayConfig{}, err
	}

	var gatewayID domain.Bytes32
	if common.IsHexAddress(gateway) || len(gateway) == 66 {
		if gatewayID, err = domain.ParseBytes32(gateway); err != nil {
			return domain.AppGatewayConfig{}, err
		}
	} else {
		addr, ok := evmx.Address(gateway)
		if !ok {
			return domain.AppGatewayConfig{}, fmt.Errorf("%w: app gateway %s not recorded on EVMx", domain.ErrStateMismatch, gateway)
		}
		gatewayID = domain.AddressToBytes32(addr)
	}
	if gatewayID.IsZero() {
		return domain.AppGatewayConfig{}, fmt.Errorf("%w: zero app gateway id", domain.ErrStateMismatch)
	}

	return domain.AppGatewayConfig{Plug: plugAddr, AppGatewayID: gatewayID, Switchboard: sbAddr, ChainSlug: slug}, nil
}

func resolveAddress(entry *domain.ChainTopologyEntry, nameOrAddr string) (common.Address, error) {
	if common.IsHexAddress(nameOrAddr) {
		return common.HexToAddress(nameOrAddr), nil
	}
	addr, ok := entry.Address(nameOrAddr)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s not recorded", domain.ErrStateMismatch, nameOrAddr)
	}
	return addr, nil
}

// dedupeLinks keeps the last link per (chainSlug, plug).
func dedupeLinks(links []domain.AppGatewayConfig) []domain.AppGatewayConfig {
	index := map[string]int{}
	var out []domain.AppGatewayConfig
	for _, l := range links {
		if i, ok := index[l.Key()]; ok {
			out[i] = l
			continue
		}
		index[l.Key()] = len(out)
		out = append(out, l)
	}
	return out
}

// Reconcile runs the socket-side and coordination-side passes. It returns the
// hash of the single coordination-chain batch, or nil when nothing changed.
func (uc *ReconcileTopology) Reconcile(ctx context.Context, links []domain.AppGatewayConfig) (*common.Hash, error) {
	uc.last = TopologyResult{}

	record, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := uc.reconcileSocketSide(ctx, record, links); err != nil {
		return nil, err
	}
	return uc.reconcileCoordinationSide(ctx, record, links)
}

// reconcileSocketSide connects plugs chain by chain, concurrently across chains.
func (uc *ReconcileTopology) reconcileSocketSide(ctx context.Context, record domain.DeploymentRecord, links []domain.AppGatewayConfig) error {
	byChain := lo.GroupBy(links, func(l domain.AppGatewayConfig) domain.ChainSlug { return l.ChainSlug })

	type counts struct{ connected, failed int }
	results := make(map[domain.ChainSlug]*counts, len(byChain))
	for slug := range byChain {
		results[slug] = &counts{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for slug, chainLinks := range byChain {
		c := results[slug]
		g.Go(func() error {
			for _, link := range chainLinks {
				applied, err := uc.connect(gctx, record.Entry(slug), link)
				switch {
				case errors.Is(err, domain.ErrDryRun):
					uc.log.Info("dry run: would connect plug", "chain", slug, "plug", link.Plug.Hex())
				case err != nil:
					c.failed++
					uc.log.Error("connect failed", "chain", slug, "plug", link.Plug.Hex(), "error", err)
				case applied:
					c.connected++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range results {
		uc.last.Connected += c.connected
		uc.last.SocketFails += c.failed
	}
	return nil
}

func (uc *ReconcileTopology) connect(ctx context.Context, entry *domain.ChainTopologyEntry, link domain.AppGatewayConfig) (bool, error) {
	socket, ok := entry.Address(domain.Socket)
	if !ok {
		return false, fmt.Errorf("%w: Socket not recorded on chain %d", domain.ErrStateMismatch, link.ChainSlug)
	}
	if link.Switchboard == (common.Address{}) {
		return false, fmt.Errorf("%w: zero switchboard for plug %s", domain.ErrStateMismatch, link.Plug.Hex())
	}

	data, err := bindings.FuncGetPlugConfig.EncodeArgs(link.Plug)
	if err != nil {
		return false, err
	}
	out, err := uc.reader.Call(ctx, link.ChainSlug, socket, data)
	if err != nil {
		return false, fmt.Errorf("getPlugConfig: %w", err)
	}
	var (
		appGatewayID domain.Bytes32
		switchboard  common.Address
	)
	if err := bindings.FuncGetPlugConfig.DecodeReturns(out, &appGatewayID, &switchboard); err != nil {
		return false, fmt.Errorf("decode getPlugConfig: %w", err)
	}

	if appGatewayID.Equal(link.AppGatewayID) && switchboard == link.Switchboard {
		uc.log.Info("skip: plug connected", "chain", link.ChainSlug, "plug", link.Plug.Hex(), "appGateway", link.AppGatewayID.Hex())
		return false, nil
	}

	data, err = bindings.FuncConnectSocket.EncodeArgs([32]byte(link.AppGatewayID), socket, link.Switchboard)
	if err != nil {
		return false, err
	}
	plug := link.Plug
	receipt, err := uc.submitter.Submit(ctx, link.ChainSlug, domain.Call{
		To:     &plug,
		Data:   data,
		Signer: domain.SignerSocket,
		Label:  "connectSocket",
	})
	if err != nil {
		return false, err
	}

	uc.log.Info("connected plug", "chain", link.ChainSlug, "plug", link.Plug.Hex(), "appGateway", link.AppGatewayID.Hex(), "switchboard", link.Switchboard.Hex(), "tx", receipt.TxHash.Hex())
	return true, nil
}

// reconcileCoordinationSide collects every mismatching registration into one
// setAppGatewayConfigs call sent as one watcher multicall.
func (uc *ReconcileTopology) reconcileCoordinationSide(ctx context.Context, record domain.DeploymentRecord, links []domain.AppGatewayConfig) (*common.Hash, error) {
	if len(links) == 0 {
		return nil, nil
	}
	evmxSlug := uc.cfg.Registry.EVMxSlug
	evmx := record.Entry(evmxSlug)
	configurations, ok := evmx.Address(domain.Configurations)
	if !ok {
		return nil, fmt.Errorf("%w: %s not recorded on EVMx", domain.ErrStateMismatch, domain.Configurations)
	}

	var mismatched []bindings.AppGatewayConfigParam
	for _, link := range links {
		want := bindings.NewAppGatewayConfigParam(link)

		data, err := bindings.FuncGetPlugConfigs.EncodeArgs(uint32(link.ChainSlug), want.Plug)
		if err != nil {
			return nil, err
		}
		out, err := uc.reader.Call(ctx, evmxSlug, configurations, data)
		if err != nil {
			uc.last.ReadFails++
			uc.log.Error("read plug config failed", "chain", link.ChainSlug, "plug", link.Plug.Hex(), "error", err)
			continue
		}
		var appGatewayID, switchboard domain.Bytes32
		if err := bindings.FuncGetPlugConfigs.DecodeReturns(out, &appGatewayID, &switchboard); err != nil {
			uc.last.ReadFails++
			uc.log.Error("decode plug config failed", "chain", link.ChainSlug, "plug", link.Plug.Hex(), "error", err)
			continue
		}

		if appGatewayID.Equal(want.PlugConfig.AppGatewayId) && switchboard.Equal(want.PlugConfig.Switchboard) {
			uc.log.Debug("skip: gateway config registered", "chain", link.ChainSlug, "plug", link.Plug.Hex())
			continue
		}
		mismatched = append(mismatched, want)
	}

	uc.last.BatchSize = len(mismatched)
	if len(mismatched) == 0 {
		uc.log.Info("skip: coordination configs up to date", "links", len(links))
		return nil, nil
	}

	calldata, err := bindings.FuncSetAppGatewayConfigs.EncodeArgs(mismatched)
	if err != nil {
		return nil, err
	}
	hash, err := submitWatcherBatch(ctx, uc.submitter, uc.watcher, evmxSlug, evmx, []watcherCall{{target: configurations, data: calldata}})
	if errors.Is(err, domain.ErrDryRun) {
		uc.log.Info("dry run: would set app gateway configs", "entries", bindings.DescribeConfigs(mismatched))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	uc.last.BatchTx = hash
	uc.log.Info("set app gateway configs", "entries", bindings.DescribeConfigs(mismatched), "tx", hash.Hex())
	return hash, nil
}

type watcherCall struct {
	target common.Address
	data   []byte
}

// submitWatcherBatch signs each call with the watcher key and sends all of
// them as one watcherMultiCall transaction on the coordination chain.
func submitWatcherBatch(ctx context.Context, submitter TxSubmitter, signer EnvelopeSigner, evmxSlug domain.ChainSlug, evmx *domain.ChainTopologyEntry, calls []watcherCall) (*common.Hash, error) {
	watcherAddr, ok := evmx.Address(domain.Watcher)
	if !ok {
		return nil, fmt.Errorf("%w: %s not recorded on EVMx", domain.ErrStateMismatch, domain.Watcher)
	}

	params := make([]bindings.WatcherMultiCallParam, 0, len(calls))
	for _, c := range calls {
		env, err := signer.Sign(ctx, c.target, c.data)
		if err != nil {
			return nil, fmt.Errorf("sign watcher envelope: %w", err)
		}
		params = append(params, bindings.NewWatcherMultiCallParam(env))
	}

	data, err := bindings.FuncWatcherMultiCall.EncodeArgs(params)
	if err != nil {
		return nil, err
	}
	receipt, err := submitter.Submit(ctx, evmxSlug, domain.Call{
		To:     &watcherAddr,
		Data:   data,
		Signer: domain.SignerSocket,
		Label:  "watcherMultiCall",
	})
	if err != nil {
		return nil, err
	}
	hash := receipt.TxHash
	return &hash, nil
}

// ReconcileChainPointers registers each socket chain's Socket,
// ContractFactoryPlug and FeesPlug on the coordination chain. All mismatching
// chains go out in one watcher multicall.
func (uc *ReconcileTopology) ReconcileChainPointers(ctx context.Context, chains []*config.ChainConfig) (*common.Hash, error) {
	uc.pointers = PointersResult{}

	record, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	evmxSlug := uc.cfg.Registry.EVMxSlug
	evmx := record.Entry(evmxSlug)
	configurations, ok := evmx.Address(domain.Configurations)
	if !ok {
		return nil, fmt.Errorf("%w: %s not recorded on EVMx", domain.ErrStateMismatch, domain.Configurations)
	}

	var calls []watcherCall
	var updated []string
	for _, chain := range chains {
		if chain.IsEVMx {
			continue
		}
		entry := record.Entry(chain.Slug)
		want, err := pointersOf(entry)
		if err != nil {
			uc.log.Error("chain pointers incomplete", "chain", chain.Name, "error", err)
			continue
		}

		data, err := bindings.FuncGetOnChainContracts.EncodeArgs(uint32(chain.Slug))
		if err != nil {
			return nil, err
		}
		out, err := uc.reader.Call(ctx, evmxSlug, configurations, data)
		if err != nil {
			uc.pointers.ReadFails++
			uc.log.Error("read chain pointers failed", "chain", chain.Name, "error", err)
			continue
		}
		var have [3]domain.Bytes32
		if err := bindings.FuncGetOnChainContracts.DecodeReturns(out, &have[0], &have[1], &have[2]); err != nil {
			uc.pointers.ReadFails++
			uc.log.Error("decode chain pointers failed", "chain", chain.Name, "error", err)
			continue
		}
		if have == want {
			uc.log.Info("skip: chain pointers registered", "chain", chain.Name)
			continue
		}

		data, err = bindings.FuncSetOnChainContracts.EncodeArgs(uint32(chain.Slug), [32]byte(want[0]), [32]byte(want[1]), [32]byte(want[2]))
		if err != nil {
			return nil, err
		}
		calls = append(calls, watcherCall{target: configurations, data: data})
		updated = append(updated, chain.Name)
	}

	uc.pointers.Updated = updated
	if len(calls) == 0 {
		return nil, nil
	}
	hash, err := submitWatcherBatch(ctx, uc.submitter, uc.watcher, evmxSlug, evmx, calls)
	if errors.Is(err, domain.ErrDryRun) {
		uc.log.Info("dry run: would register chain pointers", "chains", updated)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	uc.pointers.Tx = hash
	uc.log.Info("registered chain pointers", "chains", updated, "tx", hash.Hex())
	return hash, nil
}

// pointersOf returns Socket, ContractFactoryPlug and FeesPlug as bytes32.
func pointersOf(entry *domain.ChainTopologyEntry) ([3]domain.Bytes32, error) {
	var out [3]domain.Bytes32
	for i, name := range []string{domain.Socket, domain.ContractFactoryPlug, domain.FeesPlug} {
		addr, ok := entry.Address(name)
		if !ok {
			return out, fmt.Errorf("%w: %s not recorded", domain.ErrStateMismatch, name)
		}
		out[i] = domain.AddressToBytes32(addr)
	}
	return out, nil
}
