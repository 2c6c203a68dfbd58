package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/pkg/poll"
)

// VerifyResult counts verification outcomes per chain.
type VerifyResult struct {
	Verified  map[domain.ChainSlug]int
	Remaining map[domain.ChainSlug]int
}

// VerifyContracts drains the verification ledger with bounded retries and
// re-persists whatever is still unverified.
type VerifyContracts struct {
	cfg      *config.RuntimeConfig
	store    VerificationStore
	verifier ContractVerifier
	log      *slog.Logger
	backoff  poll.Backoff
}

// NewVerifyContracts creates a new VerifyContracts use case
func NewVerifyContracts(cfg *config.RuntimeConfig, store VerificationStore, verifier ContractVerifier, log *slog.Logger) *VerifyContracts {
	return &VerifyContracts{
		cfg:      cfg,
		store:    store,
		verifier: verifier,
		log:      log,
		backoff: poll.Backoff{
			Initial:     5 * time.Second,
			Max:         time.Minute,
			Multiplier:  2,
			MaxAttempts: cfg.Registry.Verify.MaxAttempts,
		},
	}
}

// Run verifies pending jobs of the given chains.
func (uc *VerifyContracts) Run(ctx context.Context, chains []*config.ChainConfig) (*VerifyResult, error) {
	pending, err := uc.store.Pending(ctx)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Verified:  map[domain.ChainSlug]int{},
		Remaining: map[domain.ChainSlug]int{},
	}
	for _, chain := range chains {
		jobs := pending[chain.Slug]
		if len(jobs) == 0 {
			continue
		}

		var remaining []domain.VerificationJob
		for _, job := range jobs {
			if err := uc.verifyOne(ctx, chain, job); err != nil {
				uc.log.Warn("verification failed", "chain", chain.Name, "contract", job.ContractName, "address", job.Address.Hex(), "error", err)
				remaining = append(remaining, job)
				continue
			}
			result.Verified[chain.Slug]++
			uc.log.Info("verified", "chain", chain.Name, "contract", job.ContractName, "address", job.Address.Hex())
		}

		if err := uc.store.Replace(ctx, chain.Slug, remaining); err != nil {
			return result, err
		}
		result.Remaining[chain.Slug] = len(remaining)
	}
	return result, nil
}

func (uc *VerifyContracts) verifyOne(ctx context.Context, chain *config.ChainConfig, job domain.VerificationJob) error {
	var lastErr error
	attempt := 0
	err := poll.Until(ctx, uc.backoff, func(ctx context.Context) (bool, error) {
		attempt++
		lastErr = uc.verifier.Verify(ctx, chain, job)
		if lastErr != nil {
			uc.log.Debug("verification attempt failed", "chain", chain.Name, "contract", job.ContractName, "attempt", attempt, "error", lastErr)
			return false, nil
		}
		return true, nil
	})
	if errors.Is(err, poll.ErrExhausted) && lastErr != nil {
		return lastErr
	}
	return err
}
