// Package watcher signs coordination-chain calls with the watcher key.
package watcher

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// KeySource resolves the private key of a signer role.
type KeySource interface {
	Key(role domain.SignerRole) (*ecdsa.PrivateKey, error)
}

var digestArgs = abi.Arguments{
	{Type: mustType("address")},
	{Type: mustType("uint32")},
	{Type: mustType("uint256")},
	{Type: mustType("bytes")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// Digest is keccak256(abi.encode(target, evmxSlug, nonce, calldata)).
func Digest(target common.Address, evmxSlug domain.ChainSlug, nonce *big.Int, calldata []byte) (common.Hash, error) {
	packed, err := digestArgs.Pack(target, uint32(evmxSlug), nonce, calldata)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode watcher digest: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}

// EnvelopeSigner produces watcher envelopes. Nonces are wall-clock
// milliseconds, bumped so they strictly increase within the process.
type EnvelopeSigner struct {
	keys     KeySource
	evmxSlug domain.ChainSlug
	now      func() time.Time

	mu   sync.Mutex
	last int64
}

// NewEnvelopeSigner creates a new EnvelopeSigner
func NewEnvelopeSigner(cfg *config.RuntimeConfig, keys KeySource) *EnvelopeSigner {
	return &EnvelopeSigner{
		keys:     keys,
		evmxSlug: cfg.Registry.EVMxSlug,
		now:      time.Now,
	}
}

func (s *EnvelopeSigner) nextNonce() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.now().UnixMilli()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return big.NewInt(n)
}

// Sign authenticates calldata for target.
func (s *EnvelopeSigner) Sign(_ context.Context, target common.Address, calldata []byte) (domain.WatcherEnvelope, error) {
	key, err := s.keys.Key(domain.SignerWatcher)
	if err != nil {
		return domain.WatcherEnvelope{}, err
	}

	nonce := s.nextNonce()
	digest, err := Digest(target, s.evmxSlug, nonce, calldata)
	if err != nil {
		return domain.WatcherEnvelope{}, err
	}

	sig, err := crypto.Sign(accounts.TextHash(digest.Bytes()), key)
	if err != nil {
		return domain.WatcherEnvelope{}, fmt.Errorf("sign watcher digest: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return domain.WatcherEnvelope{
		Target:    target,
		Data:      calldata,
		Nonce:     nonce,
		Signature: sig,
	}, nil
}

var _ usecase.EnvelopeSigner = (*EnvelopeSigner)(nil)
