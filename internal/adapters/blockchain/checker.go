package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// Checker confirms that recorded addresses carry bytecode.
type Checker struct {
	pool *ClientPool
}

// NewChecker creates a new Checker
func NewChecker(pool *ClientPool) *Checker {
	return &Checker{pool: pool}
}

// HasCode reports whether addr has code on chain.
func (c *Checker) HasCode(ctx context.Context, chain domain.ChainSlug, addr common.Address) (bool, error) {
	conn, err := c.pool.get(ctx, chain)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	code, err := conn.eth.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

var _ usecase.CodeChecker = (*Checker)(nil)
