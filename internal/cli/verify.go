package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/socket-deployer/internal/cli/render"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify recorded contracts on block explorers",
		Long: `Submit every pending entry of the verification ledger to the chain's
Etherscan-compatible explorer through forge verify-contract. Each contract is
retried with backoff; contracts that still fail stay in the ledger for the
next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			chains, err := selectChains(a)
			if err != nil {
				return err
			}

			result, err := a.VerifyContracts.Run(cmd.Context(), chains)
			if result != nil {
				if renderErr := render.NewVerifyRenderer(cmd.OutOrStdout()).Render(chains, result); renderErr != nil {
					return renderErr
				}
			}
			return err
		},
	}
}
