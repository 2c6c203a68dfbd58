package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
	"github.com/trebuchet-org/socket-deployer/pkg/poll"
)

// gasHeadroomPct is added on top of eth_estimateGas when no gas_limit is set.
const gasHeadroomPct = 20

// Backend is the subset of ethclient.Client the submitter needs.
type Backend interface {
	feeOracle
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// KeySource resolves the private key of a signer role.
type KeySource interface {
	Key(role domain.SignerRole) (*ecdsa.PrivateKey, error)
}

// Submitter signs, sends and waits for transactions. Writes to one chain are
// serialized so nonces never race.
type Submitter struct {
	registry *config.Registry
	keys     KeySource
	dryRun   bool
	log      *slog.Logger
	backend  func(ctx context.Context, slug domain.ChainSlug) (Backend, error)
	backoff  poll.Backoff

	mu    sync.Mutex
	locks map[domain.ChainSlug]*sync.Mutex
}

// NewSubmitter creates a new Submitter
func NewSubmitter(cfg *config.RuntimeConfig, pool *ClientPool, keys KeySource, log *slog.Logger) *Submitter {
	return &Submitter{
		registry: cfg.Registry,
		keys:     keys,
		dryRun:   cfg.DryRun,
		log:      log,
		backend: func(ctx context.Context, slug domain.ChainSlug) (Backend, error) {
			c, err := pool.get(ctx, slug)
			if err != nil {
				return nil, err
			}
			return c.eth, nil
		},
		backoff: poll.Default,
		locks:   map[domain.ChainSlug]*sync.Mutex{},
	}
}

func (s *Submitter) chainLock(slug domain.ChainSlug) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[slug]
	if !ok {
		l = &sync.Mutex{}
		s.locks[slug] = l
	}
	return l
}

// Submit simulates call, sends it and waits for the receipt. It never retries.
func (s *Submitter) Submit(ctx context.Context, slug domain.ChainSlug, call domain.Call) (*types.Receipt, error) {
	chain, err := s.registry.Chain(slug)
	if err != nil {
		return nil, err
	}
	key, err := s.keys.Key(call.Signer)
	if err != nil {
		return nil, err
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	lock := s.chainLock(slug)
	lock.Lock()
	defer lock.Unlock()

	b, err := s.backend(ctx, slug)
	if err != nil {
		return nil, err
	}

	gas, err := s.simulate(ctx, b, chain, ethereum.CallMsg{From: from, To: call.To, Data: call.Data, Value: call.Value})
	if err != nil {
		return nil, &domain.SimulationError{Chain: slug, Err: err}
	}

	if s.dryRun {
		s.log.Info("dry run: simulated", "chain", chain.Name, "call", call.Label, "gas", gas)
		return nil, domain.ErrDryRun
	}

	tx, err := s.buildTx(ctx, b, chain, from, gas, call)
	if err != nil {
		return nil, err
	}
	chainID, err := b.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := b.SendTransaction(ctx, signed); err != nil {
		if isUnderpriced(err) {
			return nil, &domain.UnderpricedError{Chain: slug, Err: err}
		}
		return nil, fmt.Errorf("send %s on %s: %w", call.Label, chain.Name, err)
	}
	s.log.Info("sent transaction", "chain", chain.Name, "call", call.Label, "tx", signed.Hash().Hex(), "nonce", signed.Nonce())

	return s.wait(ctx, b, chain, signed.Hash())
}

// simulate dry-runs msg and returns the gas limit to send with. A pinned
// gas_limit skips eth_estimateGas, which such chains cannot be trusted with.
func (s *Submitter) simulate(ctx context.Context, b Backend, chain *config.ChainConfig, msg ethereum.CallMsg) (uint64, error) {
	if chain.GasLimit > 0 {
		msg.Gas = chain.GasLimit
		if _, err := b.CallContract(ctx, msg, nil); err != nil {
			return 0, err
		}
		return chain.GasLimit, nil
	}

	gas, err := b.EstimateGas(ctx, msg)
	if err != nil {
		return 0, err
	}
	return gas + gas*gasHeadroomPct/100, nil
}

func (s *Submitter) buildTx(ctx context.Context, b Backend, chain *config.ChainConfig, from common.Address, gas uint64, call domain.Call) (*types.Transaction, error) {
	nonce, err := b.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	quote, err := quoteFees(ctx, b, chain)
	if err != nil {
		return nil, err
	}
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	if chain.TxType == config.TxTypeLegacy {
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       call.To,
			Value:    value,
			Gas:      gas,
			GasPrice: quote.GasPrice,
			Data:     call.Data,
		}), nil
	}
	return types.NewTx(&types.DynamicFeeTx{
		Nonce:     nonce,
		To:        call.To,
		Value:     value,
		Gas:       gas,
		GasTipCap: quote.TipCap,
		GasFeeCap: quote.FeeCap,
		Data:      call.Data,
	}), nil
}

// wait polls for the receipt until it has the chain's confirmations or the
// confirmation timeout expires.
func (s *Submitter) wait(ctx context.Context, b Backend, chain *config.ChainConfig, hash common.Hash) (*types.Receipt, error) {
	timeout := chain.ConfirmationTimeout
	if timeout <= 0 {
		timeout = config.DefaultConfirmationTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	confirmations := chain.Confirmations
	if confirmations == 0 {
		confirmations = 1
	}

	var receipt *types.Receipt
	err := poll.Until(wctx, s.backoff, func(ctx context.Context) (bool, error) {
		r, err := b.TransactionReceipt(ctx, hash)
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				s.log.Debug("receipt poll failed", "chain", chain.Name, "tx", hash.Hex(), "error", err)
			}
			return false, nil
		}
		if confirmations > 1 {
			head, err := b.BlockNumber(ctx)
			if err != nil || head+1 < r.BlockNumber.Uint64()+confirmations {
				return false, nil
			}
		}
		receipt = r
		return true, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.TimeoutError{Chain: chain.Slug, TxHash: hash}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &domain.RevertedError{Chain: chain.Slug, TxHash: hash}
	}
	return receipt, nil
}

func isUnderpriced(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "underpriced") ||
		strings.Contains(msg, "fee too low") ||
		strings.Contains(msg, "max fee per gas less than block base fee")
}

var _ usecase.TxSubmitter = (*Submitter)(nil)
