package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"gopkg.in/yaml.v3"
)

// TopologyFile lists extra app-gateway links at the project root.
const TopologyFile = "topology.yaml"

// LoadTopology reads topology.yaml. A missing file yields an empty topology.
func LoadTopology(path string) (*config.TopologyConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &config.TopologyConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var topo config.TopologyConfig
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, l := range topo.Links {
		if l.Chain == "" || l.Plug == "" || l.AppGateway == "" {
			return nil, fmt.Errorf("%s: link %d needs chain, plug and app_gateway", path, i)
		}
	}
	return &topo, nil
}
