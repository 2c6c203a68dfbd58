package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/trebuchet-org/socket-deployer/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is resolved once per process and injected into use cases
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Mode   domain.DeploymentMode
	Chains []string // --chain filter, empty means every chain of the mode

	// Execution settings
	Debug          bool
	NonInteractive bool
	Yes            bool
	DryRun         bool
	Timeout        time.Duration
	Redeploy       []string

	// Resolved configurations
	Registry *Registry
	Topology *TopologyConfig
	Secrets  Secrets
}

// Secrets holds the private keys read from the environment. Only the
// signer provider reads them.
type Secrets struct {
	SocketSignerKey string
	WatcherKey      string
	TransmitterKey  string
}

// LedgerPaths returns the address and verification ledger file names.
func (c *RuntimeConfig) LedgerPaths() (addresses, verification string) {
	return string(c.Mode) + "_addresses.json", string(c.Mode) + "_verification.json"
}

// Interactive reports whether prompts may be shown.
func (c *RuntimeConfig) Interactive() bool {
	return !c.NonInteractive && !c.Yes
}

// Validate checks the resolved configuration.
func (c *RuntimeConfig) Validate() error {
	var errs []error
	if !c.Mode.Valid() {
		errs = append(errs, fmt.Errorf("invalid mode %q (want dev, stage or prod)", c.Mode))
	}
	if c.Registry == nil {
		errs = append(errs, errors.New("chain registry not loaded"))
	} else {
		if err := c.Registry.Validate(); err != nil {
			errs = append(errs, err)
		}
		if c.Topology != nil {
			for i, l := range c.Topology.Links {
				if _, err := c.Registry.ChainByName(l.Chain); err != nil {
					errs = append(errs, fmt.Errorf("topology link %d: unknown chain %q", i, l.Chain))
				}
			}
		}
	}
	return errors.Join(errs...)
}
