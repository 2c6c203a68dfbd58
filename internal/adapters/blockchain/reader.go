package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// Reader implements ChainReader over w3.
type Reader struct {
	pool *ClientPool
}

// NewReader creates a new Reader
func NewReader(pool *ClientPool) *Reader {
	return &Reader{pool: pool}
}

// Call runs eth_call against the latest block.
func (r *Reader) Call(ctx context.Context, chain domain.ChainSlug, to common.Address, data []byte) ([]byte, error) {
	c, err := r.pool.get(ctx, chain)
	if err != nil {
		return nil, err
	}
	var out []byte
	msg := &w3types.Message{To: &to, Input: data}
	if err := c.w3.CallCtx(ctx, eth.Call(msg, nil, nil).Returns(&out)); err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", to.Hex(), err)
	}
	return out, nil
}

// StorageAt reads one storage slot.
func (r *Reader) StorageAt(ctx context.Context, chain domain.ChainSlug, addr common.Address, slot common.Hash) (common.Hash, error) {
	c, err := r.pool.get(ctx, chain)
	if err != nil {
		return common.Hash{}, err
	}
	var value common.Hash
	if err := c.w3.CallCtx(ctx, eth.StorageAt(addr, slot, nil).Returns(&value)); err != nil {
		return common.Hash{}, fmt.Errorf("eth_getStorageAt %s: %w", addr.Hex(), err)
	}
	return value, nil
}

// BlockNumber returns the chain height.
func (r *Reader) BlockNumber(ctx context.Context, chain domain.ChainSlug) (uint64, error) {
	c, err := r.pool.get(ctx, chain)
	if err != nil {
		return 0, err
	}
	var height *big.Int
	if err := c.w3.CallCtx(ctx, eth.BlockNumber().Returns(&height)); err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return height.Uint64(), nil
}

var _ usecase.ChainReader = (*Reader)(nil)
