package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/socket-deployer/internal/app"
	"github.com/trebuchet-org/socket-deployer/internal/cli/render"
	internalconfig "github.com/trebuchet-org/socket-deployer/internal/config"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// stages selects which parts of ReconcileProtocol a command runs.
type stages struct {
	deploy, roles, topology bool
}

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Deploy, grant roles and wire plugs in one pass",
		Long: `Run every reconciliation stage for the selected mode: deploy missing
contracts, grant missing roles, register chain contracts on EVMx and connect
plugs to their app gateways.

Examples:
  sockdeploy run --mode dev
  sockdeploy run --mode prod --chain arbitrum-sepolia --yes
  sockdeploy run --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, stages{deploy: true, roles: true, topology: true})
		},
	}
	addRedeployFlag(cmd)
	return cmd
}

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy missing contracts and upgrade stale proxies",
		Long: `Deploy every contract the ledger does not record yet, in dependency
order, and upgrade proxies whose implementation is out of date. Addresses are
written to the ledger as soon as each deployment confirms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, stages{deploy: true})
		},
	}
	addRedeployFlag(cmd)
	return cmd
}

// NewRolesCmd creates the roles command
func NewRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "Grant missing roles on recorded contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, stages{roles: true})
		},
	}
}

// NewConfigureCmd creates the configure command
func NewConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Register chain contracts on EVMx and connect plugs",
		Long: `Register each chain's Socket, ContractFactoryPlug and FeesPlug on the EVMx
Configurations contract, connect every plug to its app gateway through the
FAST switchboard and batch the missing app gateway configs into one watcher
call.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, stages{topology: true})
		},
	}
}

func addRedeployFlag(cmd *cobra.Command) {
	cmd.Flags().StringSlice("redeploy", nil, "Deploy a new implementation of these proxied contracts and upgrade")
}

func runStages(cmd *cobra.Command, s stages) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	chains, err := selectChains(a)
	if err != nil {
		return err
	}
	if err := confirmBroadcast(a, chains); err != nil {
		return err
	}

	result, err := a.ReconcileProtocol.Run(cmd.Context(), usecase.RunParams{
		Chains:   chains,
		Deploy:   s.deploy,
		Roles:    s.roles,
		Topology: s.topology,
	})
	if result != nil {
		if renderErr := render.NewRunRenderer(cmd.OutOrStdout(), a.Config.DryRun).Render(result); renderErr != nil {
			return renderErr
		}
	}
	return err
}

// confirmBroadcast asks before sending transactions in prod.
func confirmBroadcast(a *app.App, chains []*config.ChainConfig) error {
	if a.Config.Mode != domain.ModeProd || a.Config.DryRun {
		return nil
	}
	names := lo.Map(chains, func(c *config.ChainConfig, _ int) string { return c.Name })
	ok, err := a.Confirmer.Confirm(fmt.Sprintf("Broadcast to prod on %s", strings.Join(names, ", ")))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted by operator")
	}
	return nil
}

// selectChains resolves --chain. Unknown names are offered as a fuzzy
// selection when prompts are allowed.
func selectChains(a *app.App) ([]*config.ChainConfig, error) {
	chains, err := internalconfig.SelectChains(a.Config)
	if err == nil || !errors.Is(err, domain.ErrUnknownChain) || !a.Config.Interactive() {
		return chains, err
	}

	candidates, modeErr := a.Config.Registry.ChainsForMode(a.Config.Mode)
	if modeErr != nil {
		return nil, modeErr
	}
	for i, name := range a.Config.Chains {
		if _, lookupErr := a.Config.Registry.ChainByName(name); lookupErr == nil {
			continue
		}
		picked, selErr := a.Selector.SelectChain(name, candidates)
		if selErr != nil {
			return nil, errors.Join(err, selErr)
		}
		a.Config.Chains[i] = picked.Name
	}
	return internalconfig.SelectChains(a.Config)
}
