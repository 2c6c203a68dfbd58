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
)

// RoleOutcome is the result of one (contract, role) pair.
type RoleOutcome struct {
	Contract string
	Role     common.Hash
	Target   common.Address
	Granted  bool
	Err      error
}

// ChainRoleResult summarizes role reconciliation on one chain.
type ChainRoleResult struct {
	Chain *config.ChainConfig
	Roles []RoleOutcome
}

// Granted counts applied grants.
func (r *ChainRoleResult) Granted() int {
	return lo.CountBy(r.Roles, func(o RoleOutcome) bool { return o.Granted })
}

// Failed returns the pairs that could not be reconciled.
func (r *ChainRoleResult) Failed() []RoleOutcome {
	return lo.Filter(r.Roles, func(o RoleOutcome, _ int) bool { return o.Err != nil })
}

// ReconcileRoles grants missing roles from the static required-roles table.
type ReconcileRoles struct {
	store     AddressStore
	reader    ChainReader
	submitter TxSubmitter
	signers   SignerProvider
	log       *slog.Logger
}

// NewReconcileRoles creates a new ReconcileRoles use case
func NewReconcileRoles(store AddressStore, reader ChainReader, submitter TxSubmitter, signers SignerProvider, log *slog.Logger) *ReconcileRoles {
	return &ReconcileRoles{
		store:     store,
		reader:    reader,
		submitter: submitter,
		signers:   signers,
		log:       log,
	}
}

// EnsureRole grants role on contractAddr to target unless it is already held.
// It reports whether a grant transaction was sent.
func (uc *ReconcileRoles) EnsureRole(ctx context.Context, chain *config.ChainConfig, contractAddr common.Address, role common.Hash, target common.Address) (bool, error) {
	data, err := bindings.FuncHasRole.EncodeArgs(role, target)
	if err != nil {
		return false, err
	}
	out, err := uc.reader.Call(ctx, chain.Slug, contractAddr, data)
	if err != nil {
		return false, fmt.Errorf("hasRole: %w", err)
	}
	var has bool
	if err := bindings.FuncHasRole.DecodeReturns(out, &has); err != nil {
		return false, fmt.Errorf("decode hasRole: %w", err)
	}
	if has {
		uc.log.Info("skip: role held", "chain", chain.Name, "contract", contractAddr.Hex(), "role", domain.RoleName(role), "target", target.Hex())
		return false, nil
	}

	data, err = bindings.FuncGrantRole.EncodeArgs(role, target)
	if err != nil {
		return false, err
	}
	receipt, err := uc.submitter.Submit(ctx, chain.Slug, domain.Call{
		To:     &contractAddr,
		Data:   data,
		Signer: domain.SignerSocket,
		Label:  "grantRole " + domain.RoleName(role),
	})
	if err != nil {
		return false, err
	}

	uc.log.Info("granted role", "chain", chain.Name, "contract", contractAddr.Hex(), "role", domain.RoleName(role), "target", target.Hex(), "tx", receipt.TxHash.Hex())
	return true, nil
}

// ReconcileChain walks the required-roles table of chain. A failing pair is
// recorded and logged; siblings continue. Only ledger errors are returned.
func (uc *ReconcileRoles) ReconcileChain(ctx context.Context, chain *config.ChainConfig) (*ChainRoleResult, error) {
	record, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	entry := record.Entry(chain.Slug)
	table := domain.RolesFor(chain.IsEVMx)
	result := &ChainRoleResult{Chain: chain}

	names := lo.Keys(table)
	sort.Strings(names)

	for _, name := range names {
		contractAddr, ok := entry.Address(name)
		for _, req := range table[name] {
			outcome := RoleOutcome{Contract: name, Role: req.Role}
			if !ok {
				outcome.Err = fmt.Errorf("%w: %s not recorded", domain.ErrStateMismatch, name)
			} else if outcome.Target, outcome.Err = uc.resolveTarget(entry, req); outcome.Err == nil {
				outcome.Granted, outcome.Err = uc.EnsureRole(ctx, chain, contractAddr, req.Role, outcome.Target)
			}
			if errors.Is(outcome.Err, domain.ErrDryRun) {
				uc.log.Info("dry run: would grant role", "chain", chain.Name, "contract", name, "role", domain.RoleName(req.Role), "target", outcome.Target.Hex())
				outcome.Err = nil
			}
			if outcome.Err != nil {
				uc.log.Error("role reconciliation failed", "chain", chain.Name, "contract", name, "role", domain.RoleName(req.Role), "error", outcome.Err)
			}
			result.Roles = append(result.Roles, outcome)
		}
	}
	return result, nil
}

func (uc *ReconcileRoles) resolveTarget(entry *domain.ChainTopologyEntry, req domain.RoleRequirement) (common.Address, error) {
	switch req.Target {
	case domain.RoleTargetWatcher:
		return uc.signers.Address(domain.SignerWatcher)
	case domain.RoleTargetTransmitter:
		return uc.signers.Address(domain.SignerTransmitter)
	case domain.RoleTargetContract:
		addr, ok := entry.Address(req.TargetContract)
		if !ok {
			return common.Address{}, fmt.Errorf("%w: role target %s not recorded", domain.ErrStateMismatch, req.TargetContract)
		}
		return addr, nil
	default:
		return uc.signers.Address(domain.SignerSocket)
	}
}
