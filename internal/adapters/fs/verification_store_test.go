package fs

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
)

func TestVerificationStore(t *testing.T) {
	cfg := newTestConfig(t)
	store := NewVerificationStoreAdapter(cfg)
	ctx := context.Background()

	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	socket := domain.VerificationJob{
		Address:         common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ContractName:    domain.Socket,
		SourcePath:      "contracts/protocol/Socket.sol",
		ConstructorArgs: []any{uint32(421614), owner, domain.ProtocolVersion},
	}
	factory := domain.VerificationJob{
		Address:      common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
		ContractName: domain.ERC1967Factory,
		SourcePath:   "lib/solady/src/utils/ERC1967Factory.sol",
	}

	require.NoError(t, store.Append(ctx, 421614, socket))
	require.NoError(t, store.Append(ctx, 7625382, factory))

	t.Run("tuples on disk", func(t *testing.T) {
		data, err := os.ReadFile(store.path)
		require.NoError(t, err)
		var raw map[string][][]any
		require.NoError(t, json.Unmarshal(data, &raw))
		require.Len(t, raw["421614"], 1)
		assert.Equal(t, []any{
			socket.Address.Hex(),
			"Socket",
			"contracts/protocol/Socket.sol",
			[]any{float64(421614), owner.Hex(), "v1.0.0"},
		}, raw["421614"][0])
		assert.Equal(t, []any{}, raw["7625382"][0][3])
	})

	t.Run("pending round-trips", func(t *testing.T) {
		pending, err := store.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending[421614], 1)
		got := pending[421614][0]
		assert.Equal(t, socket.Address, got.Address)
		assert.Equal(t, socket.SourcePath, got.SourcePath)
		assert.Equal(t, []any{json.Number("421614"), owner.Hex(), "v1.0.0"}, got.ConstructorArgs)
	})

	t.Run("replace drops verified jobs", func(t *testing.T) {
		require.NoError(t, store.Replace(ctx, 421614, nil))
		pending, err := store.Pending(ctx)
		require.NoError(t, err)
		assert.NotContains(t, pending, domain.ChainSlug(421614))
		assert.Len(t, pending[7625382], 1)
	})
}

func TestVerificationStore_AddressArgsChecksummed(t *testing.T) {
	store := NewVerificationStoreAdapter(newTestConfig(t))
	ctx := context.Background()

	owner := common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	job := domain.VerificationJob{
		Address:         common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ContractName:    domain.FeesPlug,
		SourcePath:      "contracts/evmx/plugs/FeesPlug.sol",
		ConstructorArgs: []any{owner, &owner, uint32(1)},
	}
	require.NoError(t, store.Append(ctx, 1, job))

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending[1], 1)
	args := pending[1][0].ConstructorArgs
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", args[0])
	assert.Equal(t, args[0], args[1])
	assert.Equal(t, json.Number("1"), args[2])
}
