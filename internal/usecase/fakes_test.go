package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/bindings"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

const (
	slugA    domain.ChainSlug = 421614
	slugB    domain.ChainSlug = 11155420
	slugEVMx domain.ChainSlug = 7625382
)

var (
	signerAddr      = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	watcherAddr     = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	transmitterAddr = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

	chainA = &config.ChainConfig{Name: "arbitrum-sepolia", Slug: slugA}
	chainB = &config.ChainConfig{Name: "optimism-sepolia", Slug: slugB}
	evmx   = &config.ChainConfig{Name: "evmx", Slug: slugEVMx, IsEVMx: true}
)

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Mode: domain.ModeDev,
		Registry: &config.Registry{
			Chains: map[string]*config.ChainConfig{
				chainA.Name: chainA,
				chainB.Name: chainB,
				evmx.Name:   evmx,
			},
			EVMxSlug: slugEVMx,
			Verify:   config.VerifyConfig{MaxAttempts: 3},
		},
		Topology: &config.TopologyConfig{},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTx records one submitted transaction.
type fakeTx struct {
	chain domain.ChainSlug
	to    *common.Address
	label string
	data  []byte
}

// fakeChain is an in-memory multi-chain backend implementing ChainReader and
// TxSubmitter. Calls are decoded with the production bindings and applied.
type fakeChain struct {
	mu sync.Mutex

	nonce    uint64
	height   map[domain.ChainSlug]uint64
	txs      []fakeTx
	slots    map[common.Address]common.Hash
	roles    map[common.Address]map[common.Hash]map[common.Address]bool
	plugs    map[common.Address]bindings.PlugConfig
	gateways map[string]bindings.PlugConfig
	pointers map[domain.ChainSlug][3][32]byte
	batches  [][]bindings.WatcherMultiCallParam

	dryRun   bool
	fail     func(chain domain.ChainSlug, call domain.Call) error
	readFail func(chain domain.ChainSlug, data []byte) error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		height:   map[domain.ChainSlug]uint64{slugA: 100, slugB: 200, slugEVMx: 300},
		slots:    map[common.Address]common.Hash{},
		roles:    map[common.Address]map[common.Hash]map[common.Address]bool{},
		plugs:    map[common.Address]bindings.PlugConfig{},
		gateways: map[string]bindings.PlugConfig{},
		pointers: map[domain.ChainSlug][3][32]byte{},
	}
}

func gatewayKey(slug uint32, plug [32]byte) string {
	return fmt.Sprintf("%d:%x", slug, plug)
}

func packReturns(types []string, vals ...any) []byte {
	var args abi.Arguments
	for _, s := range types {
		typ, err := abi.NewType(s, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	out, err := args.Pack(vals...)
	if err != nil {
		panic(err)
	}
	return out
}

func selectorOf(data []byte) [4]byte {
	var s [4]byte
	copy(s[:], data)
	return s
}

func (f *fakeChain) Call(_ context.Context, chain domain.ChainSlug, to common.Address, data []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readFail != nil {
		if err := f.readFail(chain, data); err != nil {
			return nil, err
		}
	}

	switch selectorOf(data) {
	case bindings.FuncHasRole.Selector:
		var role common.Hash
		var account common.Address
		if err := bindings.FuncHasRole.DecodeArgs(data, &role, &account); err != nil {
			return nil, err
		}
		return packReturns([]string{"bool"}, f.roles[to][role][account]), nil

	case bindings.FuncGetPlugConfig.Selector:
		var plug common.Address
		if err := bindings.FuncGetPlugConfig.DecodeArgs(data, &plug); err != nil {
			return nil, err
		}
		pc := f.plugs[plug]
		return packReturns([]string{"bytes32", "address"}, pc.AppGatewayId, domain.Bytes32(pc.Switchboard).Address()), nil

	case bindings.FuncGetPlugConfigs.Selector:
		var slug uint32
		var plug [32]byte
		if err := bindings.FuncGetPlugConfigs.DecodeArgs(data, &slug, &plug); err != nil {
			return nil, err
		}
		pc := f.gateways[gatewayKey(slug, plug)]
		return packReturns([]string{"bytes32", "bytes32"}, pc.AppGatewayId, pc.Switchboard), nil

	case bindings.FuncGetOnChainContracts.Selector:
		var slug uint32
		if err := bindings.FuncGetOnChainContracts.DecodeArgs(data, &slug); err != nil {
			return nil, err
		}
		p := f.pointers[domain.ChainSlug(slug)]
		return packReturns([]string{"bytes32", "bytes32", "bytes32"}, p[0], p[1], p[2]), nil
	}
	return nil, fmt.Errorf("fake chain %d: unknown call %x to %s", chain, data[:4], to.Hex())
}

func (f *fakeChain) StorageAt(_ context.Context, _ domain.ChainSlug, addr common.Address, slot common.Hash) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot != bindings.EIP1967ImplementationSlot {
		return common.Hash{}, nil
	}
	return f.slots[addr], nil
}

func (f *fakeChain) BlockNumber(_ context.Context, chain domain.ChainSlug) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height[chain], nil
}

func (f *fakeChain) Submit(_ context.Context, chain domain.ChainSlug, call domain.Call) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		if err := f.fail(chain, call); err != nil {
			return nil, err
		}
	}
	if f.dryRun {
		return nil, domain.ErrDryRun
	}

	f.nonce++
	f.height[chain]++
	f.txs = append(f.txs, fakeTx{chain: chain, to: call.To, label: call.Label, data: call.Data})
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(f.nonce)),
		BlockNumber: new(big.Int).SetUint64(f.height[chain]),
	}

	if call.To == nil {
		receipt.ContractAddress = f.newAddress()
		return receipt, nil
	}

	if err := f.apply(chain, *call.To, call.Data, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (f *fakeChain) newAddress() common.Address {
	f.nonce++
	return crypto.CreateAddress(signerAddr, f.nonce)
}

func (f *fakeChain) apply(chain domain.ChainSlug, to common.Address, data []byte, receipt *types.Receipt) error {
	switch selectorOf(data) {
	case bindings.FuncDeployAndCall.Selector:
		var impl, admin common.Address
		var init []byte
		if err := bindings.FuncDeployAndCall.DecodeArgs(data, &impl, &admin, &init); err != nil {
			return err
		}
		proxy := f.newAddress()
		f.slots[proxy] = common.BytesToHash(impl.Bytes())
		receipt.Logs = append(receipt.Logs, &types.Log{
			Address: to,
			Topics: []common.Hash{
				bindings.EventDeployed.Topic0,
				common.BytesToHash(proxy.Bytes()),
				common.BytesToHash(impl.Bytes()),
				common.BytesToHash(admin.Bytes()),
			},
		})

	case bindings.FuncUpgrade.Selector:
		var proxy, impl common.Address
		if err := bindings.FuncUpgrade.DecodeArgs(data, &proxy, &impl); err != nil {
			return err
		}
		f.slots[proxy] = common.BytesToHash(impl.Bytes())

	case bindings.FuncUpgradeAndCall.Selector:
		var proxy, impl common.Address
		var init []byte
		if err := bindings.FuncUpgradeAndCall.DecodeArgs(data, &proxy, &impl, &init); err != nil {
			return err
		}
		f.slots[proxy] = common.BytesToHash(impl.Bytes())

	case bindings.FuncGrantRole.Selector:
		var role common.Hash
		var account common.Address
		if err := bindings.FuncGrantRole.DecodeArgs(data, &role, &account); err != nil {
			return err
		}
		if f.roles[to] == nil {
			f.roles[to] = map[common.Hash]map[common.Address]bool{}
		}
		if f.roles[to][role] == nil {
			f.roles[to][role] = map[common.Address]bool{}
		}
		f.roles[to][role][account] = true

	case bindings.FuncConnectSocket.Selector:
		var gateway [32]byte
		var socket, switchboard common.Address
		if err := bindings.FuncConnectSocket.DecodeArgs(data, &gateway, &socket, &switchboard); err != nil {
			return err
		}
		f.plugs[to] = bindings.PlugConfig{AppGatewayId: gateway, Switchboard: domain.AddressToBytes32(switchboard)}

	case bindings.FuncWatcherMultiCall.Selector:
		var params []bindings.WatcherMultiCallParam
		if err := bindings.FuncWatcherMultiCall.DecodeArgs(data, &params); err != nil {
			return err
		}
		f.batches = append(f.batches, params)
		for _, p := range params {
			if err := f.applyWatcherCall(p.Data); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("fake chain %d: unknown tx %x", chain, data[:4])
	}
	return nil
}

func (f *fakeChain) applyWatcherCall(data []byte) error {
	switch selectorOf(data) {
	case bindings.FuncSetAppGatewayConfigs.Selector:
		var cfgs []bindings.AppGatewayConfigParam
		if err := bindings.FuncSetAppGatewayConfigs.DecodeArgs(data, &cfgs); err != nil {
			return err
		}
		for _, c := range cfgs {
			f.gateways[gatewayKey(c.ChainSlug, c.Plug)] = c.PlugConfig
		}
	case bindings.FuncSetOnChainContracts.Selector:
		var slug uint32
		var socket, factory, fees [32]byte
		if err := bindings.FuncSetOnChainContracts.DecodeArgs(data, &slug, &socket, &factory, &fees); err != nil {
			return err
		}
		f.pointers[domain.ChainSlug(slug)] = [3][32]byte{socket, factory, fees}
	default:
		return fmt.Errorf("fake watcher: unknown call %x", data[:4])
	}
	return nil
}

func (f *fakeChain) txCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.txs)
}

func (f *fakeChain) txsOn(chain domain.ChainSlug) []fakeTx {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeTx
	for _, tx := range f.txs {
		if tx.chain == chain {
			out = append(out, tx)
		}
	}
	return out
}

func (f *fakeChain) labels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.txs))
	for i, tx := range f.txs {
		out[i] = tx.label
	}
	return out
}

// memStore is an in-memory AddressStore with the same start block rule.
type memStore struct {
	mu     sync.Mutex
	record domain.DeploymentRecord
	err    error
}

func newMemStore() *memStore {
	return &memStore{record: domain.DeploymentRecord{}}
}

func (s *memStore) Load(context.Context) (domain.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := domain.DeploymentRecord{}
	for slug, e := range s.record {
		cp := &domain.ChainTopologyEntry{ChainSlug: slug, IsEVMx: e.IsEVMx, StartBlock: e.StartBlock, Contracts: map[string]common.Address{}}
		for k, v := range e.Contracts {
			cp.Contracts[k] = v
		}
		out[slug] = cp
	}
	return out, nil
}

func (s *memStore) entry(slug domain.ChainSlug) *domain.ChainTopologyEntry {
	e, ok := s.record[slug]
	if !ok {
		e = &domain.ChainTopologyEntry{ChainSlug: slug, Contracts: map[string]common.Address{}}
		s.record[slug] = e
	}
	return e
}

func (s *memStore) SetAddress(_ context.Context, slug domain.ChainSlug, name string, addr common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entry(slug).Contracts[name] = addr
	return nil
}

func (s *memStore) SetStartBlock(_ context.Context, slug domain.ChainSlug, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entry(slug); block > e.StartBlock {
		e.StartBlock = block
	}
	return nil
}

func (s *memStore) address(slug domain.ChainSlug, name string) common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(slug).Contracts[name]
}

// memVerifications is an in-memory VerificationStore.
type memVerifications struct {
	mu   sync.Mutex
	jobs map[domain.ChainSlug][]domain.VerificationJob
}

func newMemVerifications() *memVerifications {
	return &memVerifications{jobs: map[domain.ChainSlug][]domain.VerificationJob{}}
}

func (m *memVerifications) Append(_ context.Context, slug domain.ChainSlug, job domain.VerificationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[slug] = append(m.jobs[slug], job)
	return nil
}

func (m *memVerifications) Pending(context.Context) (map[domain.ChainSlug][]domain.VerificationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.ChainSlug][]domain.VerificationJob, len(m.jobs))
	for k, v := range m.jobs {
		out[k] = append([]domain.VerificationJob(nil), v...)
	}
	return out, nil
}

func (m *memVerifications) Replace(_ context.Context, slug domain.ChainSlug, jobs []domain.VerificationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[slug] = jobs
	return nil
}

type fakeSigners struct{}

func (fakeSigners) Address(role domain.SignerRole) (common.Address, error) {
	switch role {
	case domain.SignerSocket:
		return signerAddr, nil
	case domain.SignerWatcher:
		return watcherAddr, nil
	case domain.SignerTransmitter:
		return transmitterAddr, nil
	}
	return common.Address{}, domain.ErrMissingSigner
}

type fakeEnvelopes struct {
	mu    sync.Mutex
	nonce int64
}

func (e *fakeEnvelopes) Sign(_ context.Context, target common.Address, calldata []byte) (domain.WatcherEnvelope, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nonce++
	return domain.WatcherEnvelope{Target: target, Data: calldata, Nonce: big.NewInt(e.nonce), Signature: make([]byte, 65)}, nil
}

// fakeArtifacts derives a constructor ABI from the ContractSpec argument kinds.
type fakeArtifacts struct{}

func (fakeArtifacts) Load(spec domain.ContractSpec) (*domain.Artifact, error) {
	inputs := make([]string, 0, len(spec.ConstructorArgs))
	for i, arg := range spec.ConstructorArgs {
		var typ string
		switch arg.(type) {
		case domain.ContractRef, domain.SignerRef, common.Address:
			typ = "address"
		case uint32:
			typ = "uint32"
		case string:
			typ = "string"
		default:
			return nil, fmt.Errorf("unsupported arg %T", arg)
		}
		inputs = append(inputs, fmt.Sprintf(`{"name":"a%d","type":"%s"}`, i, typ))
	}
	parsed, err := abi.JSON(strings.NewReader(`[{"type":"constructor","stateMutability":"nonpayable","inputs":[` + strings.Join(inputs, ",") + `]}]`))
	if err != nil {
		return nil, err
	}
	return &domain.Artifact{Name: spec.Name, ABI: parsed, Bytecode: []byte{0x60, 0x80, 0x60, 0x40}}, nil
}

// harness wires every use case to one fake chain.
type harness struct {
	t        *testing.T
	cfg      *config.RuntimeConfig
	chain    *fakeChain
	store    *memStore
	verifs   *memVerifications
	deploy   *DeployContracts
	roles    *ReconcileRoles
	topology *ReconcileTopology
	protocol *ReconcileProtocol
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		cfg:    testConfig(),
		chain:  newFakeChain(),
		store:  newMemStore(),
		verifs: newMemVerifications(),
	}
	h.rebuild()
	return h
}

// rebuild recreates the use cases, as a fresh process would.
func (h *harness) rebuild() {
	log := testLogger()
	h.deploy = NewDeployContracts(h.cfg, h.store, h.verifs, h.chain, h.chain, fakeSigners{}, fakeArtifacts{}, log)
	h.roles = NewReconcileRoles(h.store, h.chain, h.chain, fakeSigners{}, log)
	h.topology = NewReconcileTopology(h.cfg, h.store, h.chain, h.chain, &fakeEnvelopes{}, log)
	h.protocol = NewReconcileProtocol(h.deploy, h.roles, h.topology, h.store, nil, log)
}

func specNamed(specs []domain.ContractSpec, names ...string) []domain.ContractSpec {
	var out []domain.ContractSpec
	for _, n := range names {
		for _, s := range specs {
			if s.Name == n {
				out = append(out, s)
			}
		}
	}
	return out
}
