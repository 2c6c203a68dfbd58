// Package artifacts reads compiled contracts from the forge output directory.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// forgeArtifact is the subset of a forge output file we read.
type forgeArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object string `json:"object"`
	} `json:"bytecode"`
}

// Loader loads <dir>/<Source>.sol/<Name>.json and caches the result.
type Loader struct {
	dir string

	mu    sync.Mutex
	cache map[string]*domain.Artifact
}

// NewLoader creates a new Loader
func NewLoader(cfg *config.RuntimeConfig) *Loader {
	return &Loader{
		dir:   cfg.Registry.ArtifactsDir,
		cache: map[string]*domain.Artifact{},
	}
}

// Path returns the artifact file of spec.
func (l *Loader) Path(spec domain.ContractSpec) string {
	source := filepath.Base(spec.ArtifactPath)
	if source == "." || source == "" {
		source = spec.Name + ".sol"
	}
	return filepath.Join(l.dir, source, spec.Name+".json")
}

// Load reads and parses the artifact of spec.
func (l *Loader) Load(spec domain.ContractSpec) (*domain.Artifact, error) {
	path := l.Path(spec)

	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.cache[path]; ok {
		return a, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact for %s not found at %s (run forge build)", spec.Name, path)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var raw forgeArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	if raw.Bytecode.Object == "" || raw.Bytecode.Object == "0x" {
		return nil, fmt.Errorf("artifact %s has no bytecode (abstract contract or interface?)", path)
	}
	if strings.Contains(raw.Bytecode.Object, "__$") {
		return nil, fmt.Errorf("artifact %s has unlinked library references", path)
	}

	parsed, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", spec.Name, err)
	}

	a := &domain.Artifact{
		Name:     spec.Name,
		ABI:      parsed,
		Bytecode: common.FromHex(raw.Bytecode.Object),
	}
	l.cache[path] = a
	return a, nil
}

var _ usecase.ArtifactLoader = (*Loader)(nil)
