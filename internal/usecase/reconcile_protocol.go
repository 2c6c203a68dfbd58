package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"golang.org/x/sync/errgroup"
)

// Stages of a full reconciliation run.
const (
	StageDeploy    = "deploy"
	StageRoles     = "roles"
	StageTopology  = "topology"
	StagePointers  = "pointers"
	StageCompleted = "completed"
)

// RunParams selects which stages run.
type RunParams struct {
	Chains   []*config.ChainConfig
	Deploy   bool
	Roles    bool
	Topology bool
}

// ChainReport collects per-chain results of a run.
type ChainReport struct {
	Chain  *config.ChainConfig
	Deploy *ChainDeployResult
	Roles  *ChainRoleResult
	Err    error
}

// RunResult is the outcome of ReconcileProtocol.Run.
type RunResult struct {
	Chains      []*ChainReport
	PointersTx  *common.Hash
	ConfigsTx   *common.Hash
	Topology    TopologyResult
	Pointers    PointersResult
	LinkErrors  []error
	DesiredLink int
	// CoordinationErrs holds failed coordination-chain batches
	CoordinationErrs []error
}

// CoordinationFailed reports whether anything on the coordination chain
// could not be read or applied.
func (r *RunResult) CoordinationFailed() bool {
	return len(r.CoordinationErrs) > 0 || r.Topology.ReadFails > 0 || r.Pointers.ReadFails > 0
}

// Failed reports whether any chain, link or coordination batch failed.
func (r *RunResult) Failed() bool {
	for _, c := range r.Chains {
		if c.Err != nil {
			return true
		}
		if c.Roles != nil && len(c.Roles.Failed()) > 0 {
			return true
		}
	}
	return len(r.LinkErrors) > 0 || r.Topology.SocketFails > 0 || r.CoordinationFailed()
}

// ReconcileProtocol drives deployment, roles and topology across chains.
type ReconcileProtocol struct {
	deploy   *DeployContracts
	roles    *ReconcileRoles
	topology *ReconcileTopology
	store    AddressStore
	progress ProgressSink
	log      *slog.Logger
}

// NewReconcileProtocol creates a new ReconcileProtocol use case
func NewReconcileProtocol(
	deploy *DeployContracts,
	roles *ReconcileRoles,
	topology *ReconcileTopology,
	store AddressStore,
	progress ProgressSink,
	log *slog.Logger,
) *ReconcileProtocol {
	if progress == nil {
		progress = NopProgress{}
	}
	return &ReconcileProtocol{
		deploy:   deploy,
		roles:    roles,
		topology: topology,
		store:    store,
		progress: progress,
		log:      log,
	}
}

// Run executes the selected stages. Per-chain failures are logged and
// reported in the result; only ledger I/O and a missing coordination-chain
// registry abort the run with an error.
func (uc *ReconcileProtocol) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	result := &RunResult{}
	reports := make(map[domain.ChainSlug]*ChainReport, len(params.Chains))
	for _, c := range params.Chains {
		r := &ChainReport{Chain: c}
		reports[c.Slug] = r
		result.Chains = append(result.Chains, r)
	}

	if params.Deploy {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageDeploy, Total: len(params.Chains), Message: "Deploying contracts", Spinner: true})
		err := uc.perChain(ctx, params.Chains, func(ctx context.Context, chain *config.ChainConfig) error {
			res, err := uc.deploy.DeployChain(ctx, chain, uc.deploy.SpecsFor(chain))
			reports[chain.Slug].Deploy = res
			return uc.chainFailure(chain, reports[chain.Slug], StageDeploy, err)
		})
		if err != nil {
			return result, err
		}
	}

	if params.Roles {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageRoles, Total: len(params.Chains), Message: "Reconciling roles", Spinner: true})
		err := uc.perChain(ctx, params.Chains, func(ctx context.Context, chain *config.ChainConfig) error {
			res, err := uc.roles.ReconcileChain(ctx, chain)
			reports[chain.Slug].Roles = res
			return uc.chainFailure(chain, reports[chain.Slug], StageRoles, err)
		})
		if err != nil {
			return result, err
		}
	}

	if params.Topology {
		if err := uc.reconcileTopology(ctx, params.Chains, result); err != nil {
			return result, err
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Message: "Done"})
	return result, nil
}

func (uc *ReconcileProtocol) reconcileTopology(ctx context.Context, chains []*config.ChainConfig, result *RunResult) error {
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StagePointers, Message: "Registering chain contracts on EVMx", Spinner: true})
	hash, err := uc.topology.ReconcileChainPointers(ctx, chains)
	result.Pointers = uc.topology.LastPointers()
	if err != nil {
		if fatal := uc.runWide(err); fatal != nil {
			return fatal
		}
		uc.log.Error("chain pointer registration failed", "error", err)
		result.CoordinationErrs = append(result.CoordinationErrs, fmt.Errorf("chain pointers: %w", err))
	}
	result.PointersTx = hash

	record, err := uc.store.Load(ctx)
	if err != nil {
		return err
	}
	links, linkErrs := uc.topology.DesiredLinks(record, chains)
	for _, e := range linkErrs {
		uc.log.Error("link skipped", "error", e)
	}
	result.LinkErrors = linkErrs
	result.DesiredLink = len(links)

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageTopology, Total: len(links), Message: "Reconciling plug wiring", Spinner: true})
	hash, err = uc.topology.Reconcile(ctx, links)
	result.Topology = uc.topology.LastResult()
	if err != nil {
		if fatal := uc.runWide(err); fatal != nil {
			return fatal
		}
		uc.log.Error("coordination batch failed", "error", err)
		result.CoordinationErrs = append(result.CoordinationErrs, fmt.Errorf("app gateway configs: %w", err))
		return nil
	}
	result.ConfigsTx = hash
	return nil
}

// runWide returns err when it must abort the run: ledger I/O, or the
// coordination-chain registry missing from the ledger entirely.
func (uc *ReconcileProtocol) runWide(err error) error {
	if domain.IsFatal(err) {
		return err
	}
	if errors.Is(err, domain.ErrStateMismatch) {
		return fmt.Errorf("coordination chain not configured: %w", err)
	}
	return nil
}

// perChain fans fn out over chains. fn returns nil for chain-local failures
// so sibling chains keep going.
func (uc *ReconcileProtocol) perChain(ctx context.Context, chains []*config.ChainConfig, fn func(context.Context, *config.ChainConfig) error) error {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	done := 0
	for _, chain := range chains {
		g.Go(func() error {
			err := fn(gctx, chain)
			mu.Lock()
			done++
			uc.progress.OnProgress(gctx, ProgressEvent{Current: done, Total: len(chains), Message: fmt.Sprintf("%s finished", chain.Name), Spinner: true})
			mu.Unlock()
			return err
		})
	}
	return g.Wait()
}

func (uc *ReconcileProtocol) chainFailure(chain *config.ChainConfig, report *ChainReport, stage string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsFatal(err) {
		return err
	}
	report.Err = err
	uc.log.Error("chain stage failed", "chain", chain.Name, "stage", stage, "error", err)
	return nil
}
