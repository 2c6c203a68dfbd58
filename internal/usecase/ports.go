package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// AddressStore owns the per-mode address ledger. Every call re-reads the
// file; mutations are read-modify-write under a process-wide lock.
type AddressStore interface {
	Load(ctx context.Context) (domain.DeploymentRecord, error)
	SetAddress(ctx context.Context, chain domain.ChainSlug, name string, addr common.Address) error
	// SetStartBlock never lowers a recorded start block
	SetStartBlock(ctx context.Context, chain domain.ChainSlug, block uint64) error
}

// VerificationStore owns the pending explorer-verification ledger.
type VerificationStore interface {
	Append(ctx context.Context, chain domain.ChainSlug, job domain.VerificationJob) error
	Pending(ctx context.Context) (map[domain.ChainSlug][]domain.VerificationJob, error)
	Replace(ctx context.Context, chain domain.ChainSlug, jobs []domain.VerificationJob) error
}

// ChainReader performs read-only RPC calls.
type ChainReader interface {
	Call(ctx context.Context, chain domain.ChainSlug, to common.Address, data []byte) ([]byte, error)
	StorageAt(ctx context.Context, chain domain.ChainSlug, addr common.Address, slot common.Hash) (common.Hash, error)
	BlockNumber(ctx context.Context, chain domain.ChainSlug) (uint64, error)
}

// TxSubmitter signs, sends and waits for a transaction. It never retries.
// Errors are *domain.SimulationError, *domain.UnderpricedError,
// *domain.TimeoutError, *domain.RevertedError or domain.ErrDryRun.
type TxSubmitter interface {
	Submit(ctx context.Context, chain domain.ChainSlug, call domain.Call) (*types.Receipt, error)
}

// CodeChecker reports whether an address has deployed bytecode.
type CodeChecker interface {
	HasCode(ctx context.Context, chain domain.ChainSlug, addr common.Address) (bool, error)
}

// SignerProvider exposes the addresses of the configured keys.
type SignerProvider interface {
	Address(role domain.SignerRole) (common.Address, error)
}

// EnvelopeSigner authenticates a coordination-chain call with the watcher key.
type EnvelopeSigner interface {
	Sign(ctx context.Context, target common.Address, calldata []byte) (domain.WatcherEnvelope, error)
}

// ArtifactLoader loads compiled contracts.
type ArtifactLoader interface {
	Load(spec domain.ContractSpec) (*domain.Artifact, error)
}

// ContractVerifier submits one verification job to a block explorer.
type ContractVerifier interface {
	Verify(ctx context.Context, chain *config.ChainConfig, job domain.VerificationJob) error
}

// Confirmer asks the operator before broadcasting.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Current int
	Total   int
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
