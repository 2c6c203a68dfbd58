//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/socket-deployer/internal/adapters"
	"github.com/trebuchet-org/socket-deployer/internal/config"
	"github.com/trebuchet-org/socket-deployer/internal/logging"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployContracts,
		usecase.NewReconcileRoles,
		usecase.NewReconcileTopology,
		usecase.NewReconcileProtocol,
		usecase.NewShowStatus,
		usecase.NewVerifyContracts,

		// App
		NewApp,
	)
	return nil, nil
}
