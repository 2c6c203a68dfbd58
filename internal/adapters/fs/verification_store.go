package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// VerificationStoreAdapter implements VerificationStore over
// <mode>_verification.json. Each chain holds a list of
// [address, contractName, sourcePath, constructorArgs] tuples.
type VerificationStoreAdapter struct {
	path string
	mu   sync.Mutex
}

// NewVerificationStoreAdapter creates a new VerificationStoreAdapter
func NewVerificationStoreAdapter(cfg *config.RuntimeConfig) *VerificationStoreAdapter {
	_, verification := cfg.LedgerPaths()
	return &VerificationStoreAdapter{path: filepath.Join(cfg.DataDir, verification)}
}

// Append queues job for chain.
func (s *VerificationStoreAdapter) Append(_ context.Context, chain domain.ChainSlug, job domain.VerificationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.read()
	if err != nil {
		return err
	}
	pending[chain] = append(pending[chain], job)
	return s.write(pending)
}

// Pending returns every queued job.
func (s *VerificationStoreAdapter) Pending(_ context.Context) (map[domain.ChainSlug][]domain.VerificationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Replace overwrites chain's queue with jobs.
func (s *VerificationStoreAdapter) Replace(_ context.Context, chain domain.ChainSlug, jobs []domain.VerificationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.read()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		delete(pending, chain)
	} else {
		pending[chain] = jobs
	}
	return s.write(pending)
}

func (s *VerificationStoreAdapter) read() (map[domain.ChainSlug][]domain.VerificationJob, error) {
	raw := map[string][][]json.RawMessage{}
	if err := readJSON(s.path, &raw); err != nil {
		return nil, err
	}

	out := make(map[domain.ChainSlug][]domain.VerificationJob, len(raw))
	for key, tuples := range raw {
		slug, err := domain.ParseChainSlug(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: chain key %q: %v", domain.ErrLedgerIO, s.path, key, err)
		}
		for i, tuple := range tuples {
			job, err := decodeJob(tuple)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: chain %s entry %d: %v", domain.ErrLedgerIO, s.path, key, i, err)
			}
			out[slug] = append(out[slug], job)
		}
	}
	return out, nil
}

func decodeJob(tuple []json.RawMessage) (domain.VerificationJob, error) {
	var job domain.VerificationJob
	if len(tuple) != 4 {
		return job, fmt.Errorf("expected 4 fields, got %d", len(tuple))
	}

	var addr string
	if err := json.Unmarshal(tuple[0], &addr); err != nil || !common.IsHexAddress(addr) {
		return job, fmt.Errorf("invalid address %s", tuple[0])
	}
	job.Address = common.HexToAddress(addr)
	if err := json.Unmarshal(tuple[1], &job.ContractName); err != nil {
		return job, fmt.Errorf("contract name: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &job.SourcePath); err != nil {
		return job, fmt.Errorf("source path: %w", err)
	}

	// keep numbers as json.Number; the verifier coerces with the artifact ABI
	dec := json.NewDecoder(bytes.NewReader(tuple[3]))
	dec.UseNumber()
	if err := dec.Decode(&job.ConstructorArgs); err != nil {
		return job, fmt.Errorf("constructor args: %w", err)
	}
	return job, nil
}

func (s *VerificationStoreAdapter) write(pending map[domain.ChainSlug][]domain.VerificationJob) error {
	out := make(map[string][][]any, len(pending))
	for slug, jobs := range pending {
		tuples := make([][]any, 0, len(jobs))
		for _, job := range jobs {
			tuples = append(tuples, []any{job.Address.Hex(), job.ContractName, job.SourcePath, encodeArgs(job.ConstructorArgs)})
		}
		out[slug.String()] = tuples
	}
	return writeJSON(s.path, out)
}

// encodeArgs writes addresses checksummed, matching the tuple's own address field.
func encodeArgs(args []any) []any {
	out := make([]any, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case common.Address:
			out = append(out, v.Hex())
		case *common.Address:
			if v == nil {
				out = append(out, nil)
				continue
			}
			out = append(out, v.Hex())
		default:
			out = append(out, arg)
		}
	}
	return out
}

// Ensure VerificationStoreAdapter implements VerificationStore
var _ usecase.VerificationStore = (*VerificationStoreAdapter)(nil)
