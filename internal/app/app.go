package app

import (
	"log/slog"

	"github.com/trebuchet-org/socket-deployer/internal/adapters/blockchain"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/interactive"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Confirmer usecase.Confirmer
	Selector  *interactive.SelectorAdapter

	// Use cases
	ReconcileProtocol *usecase.ReconcileProtocol
	ShowStatus        *usecase.ShowStatus
	VerifyContracts   *usecase.VerifyContracts

	clients *blockchain.ClientPool
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	confirmer usecase.Confirmer,
	selector *interactive.SelectorAdapter,
	reconcileProtocol *usecase.ReconcileProtocol,
	showStatus *usecase.ShowStatus,
	verifyContracts *usecase.VerifyContracts,
	clients *blockchain.ClientPool,
) (*App, error) {
	return &App{
		Config:            cfg,
		Log:               log,
		Confirmer:         confirmer,
		Selector:          selector,
		ReconcileProtocol: reconcileProtocol,
		ShowStatus:        showStatus,
		VerifyContracts:   verifyContracts,
		clients:           clients,
	}, nil
}

// Close releases the RPC connections opened during the command.
func (a *App) Close() {
	if a.clients != nil {
		a.clients.Close()
	}
}
