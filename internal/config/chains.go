package config

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// SelectChains returns the chains of the configured mode, narrowed to the
// --chain filter. The EVMx chain is always part of the result. Unknown
// names fail with a "did you mean" suggestion. Numeric entries are matched
// as chain slugs.
func SelectChains(cfg *config.RuntimeConfig) ([]*config.ChainConfig, error) {
	all, err := cfg.Registry.ChainsForMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	if len(cfg.Chains) == 0 {
		return all, nil
	}

	wanted := map[string]bool{}
	for _, name := range cfg.Chains {
		chain, err := resolveChain(cfg.Registry, name)
		if err != nil {
			return nil, err
		}
		wanted[chain.Name] = true
	}

	var out []*config.ChainConfig
	for _, c := range all {
		if wanted[c.Name] || c.IsEVMx {
			out = append(out, c)
			delete(wanted, c.Name)
		}
	}
	for name := range wanted {
		return nil, fmt.Errorf("chain %s is not part of mode %s", name, cfg.Mode)
	}
	return out, nil
}

func resolveChain(reg *config.Registry, name string) (*config.ChainConfig, error) {
	if chain, err := reg.ChainByName(name); err == nil {
		return chain, nil
	}
	if slug, err := domain.ParseChainSlug(name); err == nil {
		if chain, err := reg.Chain(slug); err == nil {
			return chain, nil
		}
	}
	return nil, unknownChainError(name, reg.Names())
}

func unknownChainError(name string, known []string) error {
	matches := fuzzy.Find(name, known)
	if len(matches) > 0 {
		return fmt.Errorf("%w: %s (did you mean %q?)", domain.ErrUnknownChain, name, matches[0].Str)
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownChain, name)
}
