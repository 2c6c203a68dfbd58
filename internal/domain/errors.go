package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested ledger entry doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrStateMismatch is returned when an expected contract, address or
	// identifier is missing or zero. Fatal to one reconciliation unit only.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrLedgerIO is returned when the address or verification ledger cannot be
	// read or written. Fatal to the whole run.
	ErrLedgerIO = errors.New("ledger I/O")

	// ErrUnknownChain is returned when a chain name or slug is not in the registry
	ErrUnknownChain = errors.New("unknown chain")

	// ErrMissingSigner is returned when the key for a signer role is not configured
	ErrMissingSigner = errors.New("missing signer key")

	// ErrDryRun is returned by the submitter instead of broadcasting in dry-run mode
	ErrDryRun = errors.New("dry run: transaction not sent")
)

// DeployError wraps a failure of one deployment step for one contract.
type DeployError struct {
	Chain    ChainSlug
	Contract string
	Step     string
	Err      error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy %s on chain %d: %s: %v", e.Contract, e.Chain, e.Step, e.Err)
}

func (e *DeployError) Unwrap() error { return e.Err }

// SimulationError means the node rejected the call during gas estimation.
type SimulationError struct {
	Chain ChainSlug
	Err   error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation failed on chain %d: %v", e.Chain, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }

// UnderpricedError means the node refused the transaction for its gas price.
type UnderpricedError struct {
	Chain ChainSlug
	Err   error
}

func (e *UnderpricedError) Error() string {
	return fmt.Sprintf("transaction underpriced on chain %d: %v", e.Chain, e.Err)
}

func (e *UnderpricedError) Unwrap() error { return e.Err }

// TimeoutError means the confirmation wait expired. The transaction's fate is
// unknown; callers must re-read live state before resubmitting.
type TimeoutError struct {
	Chain  ChainSlug
	TxHash common.Hash
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s on chain %d", e.TxHash.Hex(), e.Chain)
}

// RevertedError means the transaction was mined with a failed status.
type RevertedError struct {
	Chain  ChainSlug
	TxHash common.Hash
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("transaction %s reverted on chain %d", e.TxHash.Hex(), e.Chain)
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrLedgerIO)
}
