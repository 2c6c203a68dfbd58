package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/progress"
	"github.com/trebuchet-org/socket-deployer/internal/app"
	"github.com/trebuchet-org/socket-deployer/internal/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var cancel context.CancelFunc

	rootCmd := &cobra.Command{
		Use:   "sockdeploy",
		Short: "Idempotent multi-chain deployment of the Socket protocol",
		Long: `sockdeploy deploys the Socket protocol contracts to every chain of a
deployment mode plus the EVMx coordination chain, grants the required roles
and wires plugs to their app gateways. Every run compares the address ledger
and on-chain state with the desired topology and only sends the transactions
that are missing, so an interrupted run is resumed by running it again.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot)
			bindGlobalFlags(v, cmd)

			appInstance, err := app.InitApp(v, newProgressSink(v))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if appInstance.Config.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a, err := getApp(cmd); err == nil {
				a.Close()
			}
			if cancel != nil {
				cancel()
			}
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("mode", "m", "", "Deployment mode: dev, stage or prod (env SOCKET_MODE)")
	flags.StringSliceP("chain", "c", nil, "Restrict the run to these chains (repeatable or comma separated)")
	flags.Bool("debug", false, "Enable debug output")
	flags.Bool("non-interactive", false, "Disable interactive prompts")
	flags.Bool("dry-run", false, "Simulate every transaction and print the plan without broadcasting")
	flags.BoolP("yes", "y", false, "Skip the confirmation prompt in prod mode")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "reconcile",
		Title: "Reconciliation Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{NewRunCmd(), NewDeployCmd(), NewRolesCmd(), NewConfigureCmd()} {
		cmd.GroupID = "reconcile"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{NewStatusCmd(), NewChainsCmd(), NewVerifyCmd()} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// bindGlobalFlags binds changed flags to viper; unchanged flags leave the
// SOCKET_* environment in charge.
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key := flagKey(f.Name)
		if slice, ok := f.Value.(pflag.SliceValue); ok {
			v.Set(key, slice.GetSlice())
			return
		}
		v.Set(key, f.Value.String())
	})
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// newProgressSink shows a spinner on a terminal and plain lines elsewhere.
func newProgressSink(v *viper.Viper) usecase.ProgressSink {
	if v.GetBool("debug") {
		return progress.NewNopSink()
	}
	if v.GetBool("non_interactive") || !isatty.IsTerminal(os.Stderr.Fd()) {
		return progress.NewLineSink(os.Stderr)
	}
	return progress.NewSpinnerProgressReporter()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	if cmd.Context() == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}
	return a, nil
}
