package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/socket-deployer/internal/cli/render"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the address ledger of a mode",
		Long: `Show the recorded addresses, start blocks and pending verifications of every
chain in the selected mode. With --live each recorded address is checked for
deployed bytecode.`,
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

			result, err := a.ShowStatus.Run(cmd.Context(), chains, live)
			if err != nil {
				return err
			}
			return render.NewStatusRenderer(cmd.OutOrStdout(), live).Render(result)
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Check every recorded address for bytecode")
	return cmd
}
