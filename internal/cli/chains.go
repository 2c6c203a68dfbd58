package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/socket-deployer/internal/cli/render"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// NewChainsCmd creates the chains command
func NewChainsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "chains",
		Short: "List chains from socket.toml",
		Long: `List the chains of the selected mode with their RPC status and gas policy.
Use --all to list every chain in the registry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			var chains []*config.ChainConfig
			if all {
				for _, c := range a.Config.Registry.Chains {
					chains = append(chains, c)
				}
			} else if chains, err = selectChains(a); err != nil {
				return err
			}
			return render.NewChainsRenderer(cmd.OutOrStdout()).Render(chains)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every registry chain regardless of mode")
	return cmd
}
