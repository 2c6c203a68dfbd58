package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

const feesPlugArtifact = `{
  "abi": [
    {"type": "constructor", "inputs": [
      {"name": "socket_", "type": "address", "internalType": "address"},
      {"name": "owner_", "type": "address", "internalType": "address"}
    ], "stateMutability": "nonpayable"}
  ],
  "bytecode": {"object": "0x6080604052", "sourceMap": "", "linkReferences": {}}
}`

func writeArtifact(t *testing.T, dir, source, name, content string) {
	t.Helper()
	path := filepath.Join(dir, source, name+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	return NewLoader(&config.RuntimeConfig{Registry: &config.Registry{ArtifactsDir: dir}}), dir
}

func TestLoad(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeArtifact(t, dir, "FeesPlug.sol", "FeesPlug", feesPlugArtifact)
	spec := domain.ContractSpec{Name: "FeesPlug", ArtifactPath: "contracts/evmx/plugs/FeesPlug.sol"}

	a, err := loader.Load(spec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, a.Bytecode)
	assert.Len(t, a.ABI.Constructor.Inputs, 2)

	socket := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	code, err := a.CreationCode(socket, owner)
	require.NoError(t, err)
	assert.Len(t, code, 5+64)
	assert.Equal(t, socket.Bytes(), code[5+12:5+32])

	again, err := loader.Load(spec)
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestLoad_Errors(t *testing.T) {
	loader, dir := newTestLoader(t)

	_, err := loader.Load(domain.ContractSpec{Name: "Missing", ArtifactPath: "src/Missing.sol"})
	assert.ErrorContains(t, err, "run forge build")

	writeArtifact(t, dir, "IPlug.sol", "IPlug", `{"abi": [], "bytecode": {"object": "0x"}}`)
	_, err = loader.Load(domain.ContractSpec{Name: "IPlug", ArtifactPath: "src/IPlug.sol"})
	assert.ErrorContains(t, err, "no bytecode")

	writeArtifact(t, dir, "Linked.sol", "Linked", `{"abi": [], "bytecode": {"object": "0x60__$abc$__"}}`)
	_, err = loader.Load(domain.ContractSpec{Name: "Linked", ArtifactPath: "src/Linked.sol"})
	assert.ErrorContains(t, err, "unlinked")
}
