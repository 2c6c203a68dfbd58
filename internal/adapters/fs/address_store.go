package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

const startBlockKey = "startBlock"

// rawChainEntry is one chain object of the address ledger:
// contract names to hex addresses plus the numeric startBlock.
type rawChainEntry map[string]json.RawMessage

// AddressStoreAdapter implements AddressStore over <mode>_addresses.json.
type AddressStoreAdapter struct {
	path     string
	evmxSlug domain.ChainSlug

	mu sync.Mutex
}

// NewAddressStoreAdapter creates a new AddressStoreAdapter
func NewAddressStoreAdapter(cfg *config.RuntimeConfig) *AddressStoreAdapter {
	addresses, _ := cfg.LedgerPaths()
	s := &AddressStoreAdapter{path: filepath.Join(cfg.DataDir, addresses)}
	if cfg.Registry != nil {
		s.evmxSlug = cfg.Registry.EVMxSlug
	}
	return s
}

// Path returns the ledger file location.
func (s *AddressStoreAdapter) Path() string {
	return s.path
}

// Load reads the whole ledger from disk.
func (s *AddressStoreAdapter) Load(_ context.Context) (domain.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// SetAddress records name on chain and persists the ledger immediately.
func (s *AddressStoreAdapter) SetAddress(_ context.Context, chain domain.ChainSlug, name string, addr common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.read()
	if err != nil {
		return err
	}
	s.entry(record, chain).Contracts[name] = addr
	return s.write(record)
}

// SetStartBlock raises the chain's start block to block. Lower values are ignored.
func (s *AddressStoreAdapter) SetStartBlock(_ context.Context, chain domain.ChainSlug, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.read()
	if err != nil {
		return err
	}
	entry := s.entry(record, chain)
	if block <= entry.StartBlock {
		return nil
	}
	entry.StartBlock = block
	return s.write(record)
}

func (s *AddressStoreAdapter) entry(record domain.DeploymentRecord, chain domain.ChainSlug) *domain.ChainTopologyEntry {
	e, ok := record[chain]
	if !ok {
		e = &domain.ChainTopologyEntry{
			ChainSlug: chain,
			Contracts: map[string]common.Address{},
			IsEVMx:    chain == s.evmxSlug,
		}
		record[chain] = e
	}
	return e
}

func (s *AddressStoreAdapter) read() (domain.DeploymentRecord, error) {
	raw := map[string]rawChainEntry{}
	if err := readJSON(s.path, &raw); err != nil {
		return nil, err
	}

	record := make(domain.DeploymentRecord, len(raw))
	for key, fields := range raw {
		slug, err := domain.ParseChainSlug(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: chain key %q: %v", domain.ErrLedgerIO, s.path, key, err)
		}
		entry := s.entry(record, slug)
		for name, value := range fields {
			if name == startBlockKey {
				if err := json.Unmarshal(value, &entry.StartBlock); err != nil {
					return nil, fmt.Errorf("%w: %s: chain %s startBlock: %v", domain.ErrLedgerIO, s.path, key, err)
				}
				continue
			}
			var hex string
			if err := json.Unmarshal(value, &hex); err != nil || !common.IsHexAddress(hex) {
				return nil, fmt.Errorf("%w: %s: chain %s %s: not an address", domain.ErrLedgerIO, s.path, key, name)
			}
			// mixed-case, lowercase and checksummed spellings all parse the same
			entry.Contracts[name] = common.HexToAddress(strings.TrimSpace(hex))
		}
	}
	return record, nil
}

func (s *AddressStoreAdapter) write(record domain.DeploymentRecord) error {
	out := make(map[string]map[string]any, len(record))
	for slug, entry := range record {
		fields := make(map[string]any, len(entry.Contracts)+1)
		for name, addr := range entry.Contracts {
			fields[name] = addr.Hex()
		}
		if entry.StartBlock > 0 {
			fields[startBlockKey] = entry.StartBlock
		}
		out[slug.String()] = fields
	}
	return writeJSON(s.path, out)
}

// Ensure AddressStoreAdapter implements AddressStore
var _ usecase.AddressStore = (*AddressStoreAdapter)(nil)
