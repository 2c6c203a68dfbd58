package config

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/trebuchet-org/socket-deployer/internal/domain"
)

// Gas transaction types accepted in the registry.
const (
	TxTypeLegacy  = 0
	TxTypeDynamic = 2
)

// DefaultConfirmationTimeout bounds the receipt wait when a chain sets none.
const DefaultConfirmationTimeout = 3 * time.Minute

// ChainConfig is one resolved [chains.<name>] entry.
type ChainConfig struct {
	Name string
	Slug domain.ChainSlug
	RPC  string
	// RPCEnv names the unset variable when RPC could not be expanded
	RPCEnv   string
	Explorer string
	// ExplorerAPI is the Etherscan-compatible API endpoint
	ExplorerAPI    string
	ExplorerAPIKey string

	// Gas overrides. Nil/zero means "use the live value".
	GasPrice              *big.Int
	GasLimit              uint64
	TxType                int
	GasPriceMultiplierBps uint64

	ConfirmationTimeout time.Duration
	Confirmations       uint64
	IsEVMx              bool
}

// HasFixedGasPrice reports whether the chain pins its gas price.
func (c *ChainConfig) HasFixedGasPrice() bool {
	return c.GasPrice != nil && c.GasPrice.Sign() > 0
}

// VerifyConfig holds explorer verification settings.
type VerifyConfig struct {
	MaxAttempts     int
	CompilerVersion string
	OptimizerRuns   int
}

// Registry is the static chain registry loaded from socket.toml.
type Registry struct {
	Chains       map[string]*ChainConfig
	Modes        map[domain.DeploymentMode][]string
	EVMxSlug     domain.ChainSlug
	ArtifactsDir string
	Verify       VerifyConfig
}

// Chain returns a chain by slug.
func (r *Registry) Chain(slug domain.ChainSlug) (*ChainConfig, error) {
	for _, c := range r.Chains {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: slug %d", domain.ErrUnknownChain, slug)
}

// ChainByName returns a chain by registry name.
func (r *Registry) ChainByName(name string) (*ChainConfig, error) {
	c, ok := r.Chains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownChain, name)
	}
	return c, nil
}

// EVMx returns the coordination chain.
func (r *Registry) EVMx() (*ChainConfig, error) {
	return r.Chain(r.EVMxSlug)
}

// Names returns every chain name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Chains))
	for n := range r.Chains {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ChainsForMode returns the chains of a mode sorted by slug. The EVMx chain
// is always included.
func (r *Registry) ChainsForMode(mode domain.DeploymentMode) ([]*ChainConfig, error) {
	seen := map[domain.ChainSlug]bool{}
	var out []*ChainConfig
	for _, name := range r.Modes[mode] {
		c, err := r.ChainByName(name)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", mode, err)
		}
		if !seen[c.Slug] {
			seen[c.Slug] = true
			out = append(out, c)
		}
	}
	if evmx, err := r.EVMx(); err == nil && !seen[evmx.Slug] {
		out = append(out, evmx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Validate reports every registry problem at once.
func (r *Registry) Validate() error {
	var errs []error
	slugs := map[domain.ChainSlug]string{}
	for _, name := range r.Names() {
		c := r.Chains[name]
		if c.Slug == 0 {
			errs = append(errs, fmt.Errorf("chain %s: slug is required", name))
		}
		if prev, dup := slugs[c.Slug]; dup && c.Slug != 0 {
			errs = append(errs, fmt.Errorf("chain %s: slug %d already used by %s", name, c.Slug, prev))
		}
		slugs[c.Slug] = name
		if c.TxType != TxTypeLegacy && c.TxType != TxTypeDynamic {
			errs = append(errs, fmt.Errorf("chain %s: unsupported tx_type %d", name, c.TxType))
		}
	}
	if r.EVMxSlug == 0 {
		errs = append(errs, errors.New("evmx.slug is required"))
	} else if _, ok := slugs[r.EVMxSlug]; !ok {
		errs = append(errs, fmt.Errorf("evmx slug %d is not a registered chain", r.EVMxSlug))
	}
	for mode, names := range r.Modes {
		if !mode.Valid() {
			errs = append(errs, fmt.Errorf("unknown mode %q", mode))
		}
		for _, n := range names {
			if _, ok := r.Chains[n]; !ok {
				errs = append(errs, fmt.Errorf("mode %s: unknown chain %q", mode, n))
			}
		}
	}
	return errors.Join(errs...)
}
