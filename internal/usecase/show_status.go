package usecase

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"golang.org/x/sync/errgroup"
)

// ChainStatus is the ledger view of one chain.
type ChainStatus struct {
	Chain               *config.ChainConfig
	Entry               *domain.ChainTopologyEntry
	PendingVerification int
	// Missing lists recorded contracts without bytecode; only filled by a
	// live check
	Missing []string
	// CheckErr is set when the live check could not reach the chain
	CheckErr error
}

// StatusResult is the ledger view of a mode.
type StatusResult struct {
	Mode   domain.DeploymentMode
	Chains []ChainStatus
}

// ShowStatus renders the address ledger. With live set it also confirms
// every recorded address has code.
type ShowStatus struct {
	cfg           *config.RuntimeConfig
	store         AddressStore
	verifications VerificationStore
	checker       CodeChecker
}

// NewShowStatus creates a new ShowStatus use case
func NewShowStatus(cfg *config.RuntimeConfig, store AddressStore, verifications VerificationStore, checker CodeChecker) *ShowStatus {
	return &ShowStatus{cfg: cfg, store: store, verifications: verifications, checker: checker}
}

// Run loads the ledgers for the given chains.
func (uc *ShowStatus) Run(ctx context.Context, chains []*config.ChainConfig, live bool) (*StatusResult, error) {
	record, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := uc.verifications.Pending(ctx)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Mode: uc.cfg.Mode, Chains: make([]ChainStatus, len(chains))}
	for i, c := range chains {
		result.Chains[i] = ChainStatus{
			Chain:               c,
			Entry:               record.Entry(c.Slug),
			PendingVerification: len(pending[c.Slug]),
		}
	}
	if !live || uc.checker == nil {
		return result, nil
	}

	var g errgroup.Group
	for i := range result.Chains {
		status := &result.Chains[i]
		if status.Entry == nil {
			continue
		}
		g.Go(func() error {
			names := lo.Keys(status.Entry.Contracts)
			sort.Strings(names)
			for _, name := range names {
				ok, err := uc.checker.HasCode(ctx, status.Chain.Slug, status.Entry.Contracts[name])
				if err != nil {
					status.CheckErr = err
					return nil
				}
				if !ok {
					status.Missing = append(status.Missing, name)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}
