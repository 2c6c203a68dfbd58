package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/bindings"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// DeployAction is the decision taken for one contract.
type DeployAction string

const (
	ActionReused    DeployAction = "reused"
	ActionDeployed  DeployAction = "deployed"
	ActionUpgraded  DeployAction = "upgraded"
	ActionUnchanged DeployAction = "unchanged"
	ActionSkipped   DeployAction = "skipped"
)

// ContractOutcome is the result of ensuring one contract.
type ContractOutcome struct {
	Name    string
	Address common.Address
	Action  DeployAction
	TxHash  *common.Hash
}

// ChainDeployResult summarizes one chain's deployment sequence.
type ChainDeployResult struct {
	Chain     *config.ChainConfig
	Contracts []ContractOutcome
	Err       error
}

// Transactions counts the sequence's non-reuse outcomes.
func (r *ChainDeployResult) Transactions() int {
	n := 0
	for _, c := range r.Contracts {
		if c.Action == ActionDeployed || c.Action == ActionUpgraded {
			n++
		}
	}
	return n
}

// DeployContracts decides deploy vs reuse vs upgrade per contract and
// checkpoints every transaction to the address ledger.
type DeployContracts struct {
	cfg           *config.RuntimeConfig
	store         AddressStore
	verifications VerificationStore
	reader        ChainReader
	submitter     TxSubmitter
	signers       SignerProvider
	artifacts     ArtifactLoader
	log           *slog.Logger

	mu         sync.Mutex
	redeployed map[string]bool
}

// NewDeployContracts creates a new DeployContracts use case
func NewDeployContracts(
	cfg *config.RuntimeConfig,
	store AddressStore,
	verifications VerificationStore,
	reader ChainReader,
	submitter TxSubmitter,
	signers SignerProvider,
	artifacts ArtifactLoader,
	log *slog.Logger,
) *DeployContracts {
	return &DeployContracts{
		cfg:           cfg,
		store:         store,
		verifications: verifications,
		reader:        reader,
		submitter:     submitter,
		signers:       signers,
		artifacts:     artifacts,
		log:           log,
		redeployed:    map[string]bool{},
	}
}

// SpecsFor returns the contract sequence of a chain.
func (uc *DeployContracts) SpecsFor(chain *config.ChainConfig) []domain.ContractSpec {
	if chain.IsEVMx {
		return domain.EVMxContracts(chain.Slug)
	}
	return domain.SocketChainContracts(chain.Slug)
}

// DeployChain runs the checkpointed sequence for one chain. It stops at the
// first failing contract; completed contracts are already in the ledger, so
// a re-run resumes where this one stopped.
func (uc *DeployContracts) DeployChain(ctx context.Context, chain *config.ChainConfig, specs []domain.ContractSpec) (*ChainDeployResult, error) {
	result := &ChainDeployResult{Chain: chain}

	if err := uc.recordStartBlock(ctx, chain); err != nil {
		result.Err = err
		return result, err
	}

	for _, spec := range specs {
		outcome, err := uc.ensure(ctx, chain, spec)
		if err != nil {
			if uc.dryRunSkip(err) {
				uc.log.Info("dry run: would deploy", "chain", chain.Name, "contract", spec.Name, "reason", err)
				result.Contracts = append(result.Contracts, ContractOutcome{Name: spec.Name, Action: ActionSkipped})
				continue
			}
			result.Err = err
			return result, err
		}
		result.Contracts = append(result.Contracts, outcome)
	}
	return result, nil
}

// EnsureDeployed makes sure spec exists on chain and returns its canonical
// address (the proxy for proxied contracts).
func (uc *DeployContracts) EnsureDeployed(ctx context.Context, chain *config.ChainConfig, spec domain.ContractSpec) (common.Address, error) {
	outcome, err := uc.ensure(ctx, chain, spec)
	if err != nil {
		return common.Address{}, err
	}
	return outcome.Address, nil
}

func (uc *DeployContracts) dryRunSkip(err error) bool {
	if errors.Is(err, domain.ErrDryRun) {
		return true
	}
	// dependents of a contract that was not deployed cannot resolve
	return uc.cfg.DryRun && errors.Is(err, domain.ErrStateMismatch)
}

func (uc *DeployContracts) recordStartBlock(ctx context.Context, chain *config.ChainConfig) error {
	if uc.cfg.DryRun {
		return nil
	}
	record, err := uc.store.Load(ctx)
	if err != nil {
		return err
	}
	if entry := record.Entry(chain.Slug); entry != nil && entry.StartBlock > 0 {
		return nil
	}
	height, err := uc.reader.BlockNumber(ctx, chain.Slug)
	if err != nil {
		return &domain.DeployError{Chain: chain.Slug, Contract: "-", Step: "read block number", Err: err}
	}
	if err := uc.store.SetStartBlock(ctx, chain.Slug, height); err != nil {
		return err
	}
	uc.log.Info("recorded start block", "chain", chain.Name, "block", height)
	return nil
}

func (uc *DeployContracts) ensure(ctx context.Context, chain *config.ChainConfig, spec domain.ContractSpec) (ContractOutcome, error) {
	// always re-read: sibling chains write the same file
	record, err := uc.store.Load(ctx)
	if err != nil {
		return ContractOutcome{}, err
	}
	entry := record.Entry(chain.Slug)

	if !spec.Proxied {
		if addr, ok := entry.Address(spec.Name); ok {
			uc.log.Info("skip: already deployed", "chain", chain.Name, "contract", spec.Name, "address", addr.Hex())
			return ContractOutcome{Name: spec.Name, Address: addr, Action: ActionReused}, nil
		}
		addr, tx, err := uc.deployRaw(ctx, chain, spec, spec.Name)
		if err != nil {
			return ContractOutcome{}, err
		}
		return ContractOutcome{Name: spec.Name, Address: addr, Action: ActionDeployed, TxHash: tx}, nil
	}

	impl, err := uc.ensureImplementation(ctx, chain, spec, entry)
	if err != nil {
		return ContractOutcome{}, err
	}

	proxy, ok := entry.Address(spec.Name)
	if !ok {
		return uc.deployProxy(ctx, chain, spec, entry, impl)
	}

	slot, err := uc.reader.StorageAt(ctx, chain.Slug, proxy, bindings.EIP1967ImplementationSlot)
	if err != nil {
		return ContractOutcome{}, &domain.DeployError{Chain: chain.Slug, Contract: spec.Name, Step: "read implementation slot", Err: err}
	}
	current := bindings.ImplementationFromSlot(slot)
	if current == impl {
		uc.log.Info("skip: implementation current", "chain", chain.Name, "contract", spec.Name, "proxy", proxy.Hex(), "implementation", impl.Hex())
		return ContractOutcome{Name: spec.Name, Address: proxy, Action: ActionUnchanged}, nil
	}

	return uc.upgradeProxy(ctx, chain, spec, entry, proxy, current, impl)
}

// ensureImplementation reuses or deploys the raw implementation behind a proxy.
func (uc *DeployContracts) ensureImplementation(ctx context.Context, chain *config.ChainConfig, spec domain.ContractSpec, entry *domain.ChainTopologyEntry) (common.Address, error) {
	key := domain.ImplKey(spec.Name)
	if addr, ok := entry.Address(key); ok && !uc.forceRedeploy(chain.Slug, spec.Name) {
		uc.log.Debug("reuse implementation", "chain", chain.Name, "contract", key, "address", addr.Hex())
		return addr, nil
	}
	addr, _, err := uc.deployRaw(ctx, chain, spec, key)
	return addr, err
}

// forceRedeploy is true once per process for contracts named by --redeploy.
func (uc *DeployContracts) forceRedeploy(slug domain.ChainSlug, name string) bool {
	wanted := false
	for _, n := range uc.cfg.Redeploy {
		if n == name {
			wanted = true
			break
		}
	}
	if !wanted {
		return false
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	key := slug.String() + "/" + name
	if uc.redeployed[key] {
		return false
	}
	uc.redeployed[key] = true
	return true
}

func (uc *DeployContracts) deployRaw(ctx context.Context, chain *config.ChainConfig, spec domain.ContractSpec, key string) (common.Address, *common.Hash, error) {
	fail := func(step string, err error) (common.Address, *common.Hash, error) {
		return common.Address{}, nil, &domain.DeployError{Chain: chain.Slug, Contract: key, Step: step, Err: err}
	}

	artifact, err := uc.artifacts.Load(spec)
	if err != nil {
		return fail("load artifact", err)
	}
	args, err := uc.resolveArgs(ctx, chain, spec.ConstructorArgs)
	if err != nil {
		return fail("resolve constructor args", err)
	}
	code, err := artifact.CreationCode(args...)
	if err != nil {
		return fail("encode constructor", err)
	}

	receipt, err := uc.submitter.Submit(ctx, chain.Slug, domain.Call{
		Data:   code,
		Signer: domain.SignerSocket,
		Label:  "deploy " + key,
	})
	if err != nil {
		return fail("submit deployment", err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return fail("read receipt", fmt.Errorf("%w: no contract address in receipt %s", domain.ErrStateMismatch, receipt.TxHash.Hex()))
	}

	addr := receipt.ContractAddress
	if err := uc.store.SetAddress(ctx, chain.Slug, key, addr); err != nil {
		return fail("record address", err)
	}
	uc.log.Info("deployed", "chain", chain.Name, "contract", key, "address", addr.Hex(), "tx", receipt.TxHash.Hex())

	job := domain.VerificationJob{Address: addr, ContractName: spec.Name, SourcePath: spec.ArtifactPath, ConstructorArgs: args}
	if err := uc.verifications.Append(ctx, chain.Slug, job); err != nil {
		return fail("queue verification", err)
	}

	hash := receipt.TxHash
	return addr, &hash, nil
}

func (uc *DeployContracts) deployProxy(ctx context.Context, chain *config.ChainConfig, spec domain.ContractSpec, entry *domain.ChainTopologyEntry, impl common.Address) (ContractOutcome, error) {
	fail := func(step string, err error) (ContractOutcome, error) {
		return ContractOutcome{}, &domain.DeployError{Chain: chain.Slug, Contract: spec.Name, Step: step, Err: err}
	}

	factory, ok := entry.Address(domain.ERC1967Factory)
	if !ok {
		return fail("find proxy factory", fmt.Errorf("%w: %s not recorded", domain.ErrStateMismatch, domain.ERC1967Factory))
	}
	admin, err := uc.signers.Address(domain.SignerSocket)
	if err != nil {
		return fail("resolve proxy admin", err)
	}
	initData, err := uc.encodeInitializer(ctx, chain, spec.Initializer)
	if err != nil {
		return fail("encode initializer", err)
	}
	data, err := bindings.FuncDeployAndCall.EncodeArgs(impl, admin, initData)
	if err != nil {
		return fail("encode deployAndCall", err)
	}

	receipt, err := uc.submitter.Submit(ctx, chain.Slug, domain.Call{
		To:     &factory,
		Data:   data,
		Signer: domain.SignerSocket,
		Label:  "deployAndCall " + spec.Name,
	})
	if err != nil {
		return fail("submit proxy deployment", err)
	}
	proxy, err := bindings.ProxyAddressFromReceipt(receipt)
	if err != nil {
		return fail("decode proxy address", fmt.Errorf("%w: %v", domain.ErrStateMismatch, err))
	}
	if err := uc.store.SetAddress(ctx, chain.Slug, spec.Name, proxy); err != nil {
		return fail("record proxy", err)
	}

	uc.log.Info("deployed proxy", "chain", chain.Name, "contract", spec.Name, "proxy", proxy.Hex(), "implementation", impl.Hex(), "tx", receipt.TxHash.Hex())
	hash := receipt.TxHash
	return ContractOutcome{Name: spec.Name, Address: proxy, Action: ActionDeployed, TxHash: &hash}, nil
}

func (uc *DeployContracts) upgradeProxy(ctx context.Context, chain *config.ChainConfig, spec domain.ContractSpec, entry *domain.ChainTopologyEntry, proxy, current, impl common.Address) (ContractOutcome, error) {
	fail := func(step string, err error) (ContractOutcome, error) {
		return ContractOutcome{}, &domain.DeployError{Chain: chain.Slug, Contract: spec.Name, Step: step, Err: err}
	}

	factory, ok := entry.Address(domain.ERC1967Factory)
	if !ok {
		return fail("find proxy factory", fmt.Errorf("%w: %s not recorded", domain.ErrStateMismatch, domain.ERC1967Factory))
	}

	var data []byte
	var err error
	if spec.Reinitializer != nil {
		var initData []byte
		initData, err = uc.encodeInitializer(ctx, chain, spec.Reinitializer)
		if err != nil {
			return fail("encode reinitializer", err)
		}
		data, err = bindings.FuncUpgradeAndCall.EncodeArgs(proxy, impl, initData)
	} else {
		data, err = bindings.FuncUpgrade.EncodeArgs(proxy, impl)
	}
	if err != nil {
		return fail("encode upgrade", err)
	}

	receipt, err := uc.submitter.Submit(ctx, chain.Slug, domain.Call{
		To:     &factory,
		Data:   data,
		Signer: domain.SignerSocket,
		Label:  "upgrade " + spec.Name,
	})
	if err != nil {
		return fail("submit upgrade", err)
	}

	uc.log.Info("upgraded", "chain", chain.Name, "contract", spec.Name, "proxy", proxy.Hex(), "from", current.Hex(), "to", impl.Hex(), "tx", receipt.TxHash.Hex())
	hash := receipt.TxHash
	return ContractOutcome{Name: spec.Name, Address: proxy, Action: ActionUpgraded, TxHash: &hash}, nil
}

func (uc *DeployContracts) encodeInitializer(ctx context.Context, chain *config.ChainConfig, init *domain.InitializerCall) ([]byte, error) {
	if init == nil {
		return []byte{}, nil
	}
	args, err := uc.resolveArgs(ctx, chain, init.Args)
	if err != nil {
		return nil, err
	}
	return bindings.EncodeInitializer(init.Signature, args...)
}

// resolveArgs replaces ContractRef and SignerRef placeholders.
func (uc *DeployContracts) resolveArgs(ctx context.Context, chain *config.ChainConfig, args []any) ([]any, error) {
	var record domain.DeploymentRecord
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case domain.ContractRef:
			if record == nil {
				var err error
				if record, err = uc.store.Load(ctx); err != nil {
					return nil, err
				}
			}
			slug := v.Chain
			if slug == 0 {
				slug = chain.Slug
			}
			addr, ok := record.Entry(slug).Address(v.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %s not recorded on chain %d", domain.ErrStateMismatch, v.Name, slug)
			}
			out[i] = addr
		case domain.SignerRef:
			addr, err := uc.signers.Address(v.Role)
			if err != nil {
				return nil, err
			}
			out[i] = addr
		default:
			out[i] = arg
		}
	}
	return out, nil
}
