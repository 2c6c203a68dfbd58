package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/signer"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

const watcherKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func newTestSigner(t *testing.T) *EnvelopeSigner {
	t.Helper()
	cfg := &config.RuntimeConfig{
		Registry: &config.Registry{EVMxSlug: 7625382},
		Secrets:  config.Secrets{WatcherKey: watcherKey},
	}
	return NewEnvelopeSigner(cfg, signer.NewProvider(cfg))
}

func TestSign_RecoversWatcher(t *testing.T) {
	s := newTestSigner(t)
	target := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	calldata := []byte{0xde, 0xad, 0xbe, 0xef}

	env, err := s.Sign(context.Background(), target, calldata)
	require.NoError(t, err)
	require.Len(t, env.Signature, 65)
	assert.Contains(t, []byte{27, 28}, env.Signature[64])

	digest, err := Digest(target, 7625382, env.Nonce, calldata)
	require.NoError(t, err)

	sig := append([]byte(nil), env.Signature...)
	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(digest.Bytes()), sig)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), crypto.PubkeyToAddress(*pub))
}

func TestSign_NonceStrictlyIncreases(t *testing.T) {
	s := newTestSigner(t)
	frozen := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return frozen }

	first, err := s.Sign(context.Background(), common.Address{}, nil)
	require.NoError(t, err)
	second, err := s.Sign(context.Background(), common.Address{}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1_700_000_000_000), first.Nonce.Int64())
	assert.Equal(t, int64(1_700_000_000_001), second.Nonce.Int64())
}

func TestSign_MissingKey(t *testing.T) {
	cfg := &config.RuntimeConfig{Registry: &config.Registry{EVMxSlug: 1}}
	s := NewEnvelopeSigner(cfg, signer.NewProvider(cfg))

	_, err := s.Sign(context.Background(), common.Address{}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingSigner)
}

func TestDigest_BindsEveryField(t *testing.T) {
	target := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	base, err := Digest(target, 1, common.Big1, []byte{1})
	require.NoError(t, err)

	other, _ := Digest(target, 2, common.Big1, []byte{1})
	assert.NotEqual(t, base, other)
	other, _ = Digest(target, 1, common.Big2, []byte{1})
	assert.NotEqual(t, base, other)
	other, _ = Digest(target, 1, common.Big1, []byte{2})
	assert.NotEqual(t, base, other)
}
