package config

import (
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// RegistryFile is the chain registry file name at the project root.
const RegistryFile = "socket.toml"

// registryTOML represents the raw socket.toml structure
type registryTOML struct {
	Chains    map[string]chainTOML `toml:"chains"`
	Modes     map[string]modeTOML  `toml:"modes"`
	EVMx      evmxTOML             `toml:"evmx"`
	Verify    verifyTOML           `toml:"verify"`
	Artifacts artifactsTOML        `toml:"artifacts"`
}

type chainTOML struct {
	Slug                  uint32 `toml:"slug"`
	RPC                   string `toml:"rpc"`
	Explorer              string `toml:"explorer"`
	ExplorerAPI           string `toml:"explorer_api"`
	ExplorerAPIKey        string `toml:"explorer_api_key"`
	GasPrice              string `toml:"gas_price"` // wei, decimal
	GasLimit              uint64 `toml:"gas_limit"`
	TxType                *int   `toml:"tx_type"`
	GasPriceMultiplierBps uint64 `toml:"gas_price_multiplier_bps"`
	ConfirmationTimeout   string `toml:"confirmation_timeout"`
	Confirmations         uint64 `toml:"confirmations"`
	EVMx                  bool   `toml:"evmx"`
}

type modeTOML struct {
	Chains []string `toml:"chains"`
}

type evmxTOML struct {
	Slug uint32 `toml:"slug"`
}

type verifyTOML struct {
	MaxAttempts     int    `toml:"max_attempts"`
	CompilerVersion string `toml:"compiler_version"`
	OptimizerRuns   int    `toml:"optimizer_runs"`
}

type artifactsTOML struct {
	Dir string `toml:"dir"`
}

// envRefPattern matches ${VAR_NAME} references inside TOML values
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// UnsetEnvRefs returns the names of ${VAR} references in raw that are not
// present in the environment.
func UnsetEnvRefs(raw string) []string {
	var missing []string
	for _, m := range envRefPattern.FindAllStringSubmatch(raw, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok {
			missing = append(missing, m[1])
		}
	}
	return missing
}

// LoadRegistry reads and resolves socket.toml. Environment references are
// expanded, so .env files must be loaded first.
func LoadRegistry(path string) (*config.Registry, error) {
	var raw registryTOML
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	reg := &config.Registry{
		Chains:       make(map[string]*config.ChainConfig, len(raw.Chains)),
		Modes:        make(map[domain.DeploymentMode][]string, len(raw.Modes)),
		EVMxSlug:     domain.ChainSlug(raw.EVMx.Slug),
		ArtifactsDir: raw.Artifacts.Dir,
		Verify: config.VerifyConfig{
			MaxAttempts:     raw.Verify.MaxAttempts,
			CompilerVersion: raw.Verify.CompilerVersion,
			OptimizerRuns:   raw.Verify.OptimizerRuns,
		},
	}
	if reg.ArtifactsDir == "" {
		reg.ArtifactsDir = "out"
	}
	if reg.Verify.MaxAttempts <= 0 {
		reg.Verify.MaxAttempts = 5
	}

	for name, c := range raw.Chains {
		chain, err := resolveChain(name, c)
		if err != nil {
			return nil, err
		}
		if chain.Slug == reg.EVMxSlug {
			chain.IsEVMx = true
		}
		reg.Chains[name] = chain
	}

	for mode, m := range raw.Modes {
		reg.Modes[domain.DeploymentMode(mode)] = m.Chains
	}

	return reg, nil
}

func resolveChain(name string, c chainTOML) (*config.ChainConfig, error) {
	chain := &config.ChainConfig{
		Name:                  name,
		Slug:                  domain.ChainSlug(c.Slug),
		RPC:                   os.ExpandEnv(c.RPC),
		Explorer:              os.ExpandEnv(c.Explorer),
		ExplorerAPI:           os.ExpandEnv(c.ExplorerAPI),
		ExplorerAPIKey:        os.ExpandEnv(c.ExplorerAPIKey),
		GasLimit:              c.GasLimit,
		TxType:                config.TxTypeDynamic,
		GasPriceMultiplierBps: c.GasPriceMultiplierBps,
		ConfirmationTimeout:   config.DefaultConfirmationTimeout,
		Confirmations:         c.Confirmations,
		IsEVMx:                c.EVMx,
	}
	if missing := UnsetEnvRefs(c.RPC); len(missing) > 0 {
		chain.RPC = ""
		chain.RPCEnv = missing[0]
	}
	if c.TxType != nil {
		chain.TxType = *c.TxType
	}
	if chain.Confirmations == 0 {
		chain.Confirmations = 1
	}

	if gp := strings.TrimSpace(os.ExpandEnv(c.GasPrice)); gp != "" {
		v, ok := new(big.Int).SetString(gp, 10)
		if !ok {
			return nil, fmt.Errorf("chain %s: invalid gas_price %q", name, c.GasPrice)
		}
		chain.GasPrice = v
	}

	if c.ConfirmationTimeout != "" {
		d, err := time.ParseDuration(c.ConfirmationTimeout)
		if err != nil {
			return nil, fmt.Errorf("chain %s: invalid confirmation_timeout: %w", name, err)
		}
		chain.ConfirmationTimeout = d
	}

	return chain, nil
}
