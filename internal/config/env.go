package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// Secret environment variables.
const (
	EnvSignerKey      = "SOCKET_SIGNER_KEY"
	EnvWatcherKey     = "WATCHER_PRIVATE_KEY"
	EnvTransmitterKey = "TRANSMITTER_PRIVATE_KEY"
)

// loadEnvFiles loads .env then .env.local. Existing variables win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

func readSecrets() config.Secrets {
	return config.Secrets{
		SocketSignerKey: os.Getenv(EnvSignerKey),
		WatcherKey:      os.Getenv(EnvWatcherKey),
		TransmitterKey:  os.Getenv(EnvTransmitterKey),
	}
}
