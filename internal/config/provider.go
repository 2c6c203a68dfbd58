package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		dataDir = filepath.Join(projectRoot, "deployments")
	} else if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(projectRoot, dataDir)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        dataDir,
		Mode:           domain.DeploymentMode(strings.ToLower(v.GetString("mode"))),
		Chains:         splitList(v.GetStringSlice("chain")),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Yes:            v.GetBool("yes"),
		DryRun:         v.GetBool("dry_run"),
		Timeout:        v.GetDuration("timeout"),
		Redeploy:       splitList(v.GetStringSlice("redeploy")),
	}

	// .env must be loaded before ${VAR} expansion
	loadEnvFiles(projectRoot)
	cfg.Secrets = readSecrets()

	registry, err := LoadRegistry(filepath.Join(projectRoot, RegistryFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load chain registry: %w", err)
	}
	if dir := registry.ArtifactsDir; !filepath.IsAbs(dir) {
		registry.ArtifactsDir = filepath.Join(projectRoot, dir)
	}
	cfg.Registry = registry

	topology, err := LoadTopology(filepath.Join(projectRoot, TopologyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}
	cfg.Topology = topology

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find socket.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, RegistryFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a socket deployment project (%s not found)", RegistryFile)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("SOCKET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("mode", string(domain.ModeDev))
	v.SetDefault("timeout", "30m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	return v
}

// splitList accepts repeated flags and comma separated values alike.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
