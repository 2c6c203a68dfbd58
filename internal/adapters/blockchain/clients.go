package blockchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// conn is one chain's RPC connection shared by the w3 reader and the
// ethclient submitter.
type conn struct {
	rpc *rpc.Client
	w3  *w3.Client
	eth *ethclient.Client
}

// ClientPool dials chains lazily, once per process.
type ClientPool struct {
	registry *config.Registry

	mu    sync.Mutex
	conns map[domain.ChainSlug]*conn
}

// NewClientPool creates a new ClientPool
func NewClientPool(cfg *config.RuntimeConfig) *ClientPool {
	return &ClientPool{
		registry: cfg.Registry,
		conns:    map[domain.ChainSlug]*conn{},
	}
}

func (p *ClientPool) get(ctx context.Context, slug domain.ChainSlug) (*conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[slug]; ok {
		return c, nil
	}

	chain, err := p.registry.Chain(slug)
	if err != nil {
		return nil, err
	}
	if chain.RPC == "" {
		if chain.RPCEnv != "" {
			return nil, fmt.Errorf("no RPC for chain %s: environment variable %s is not set", chain.Name, chain.RPCEnv)
		}
		return nil, fmt.Errorf("no RPC configured for chain %s", chain.Name)
	}

	client, err := rpc.DialContext(ctx, chain.RPC)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", chain.Name, err)
	}
	c := &conn{
		rpc: client,
		w3:  w3.NewClient(client),
		eth: ethclient.NewClient(client),
	}
	p.conns[slug] = c
	return c, nil
}

// Close releases every connection.
func (p *ClientPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for slug, c := range p.conns {
		c.rpc.Close()
		delete(p.conns, slug)
	}
}
