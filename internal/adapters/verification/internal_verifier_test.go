package verification

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

const socketABI = `[{"type": "constructor", "inputs": [
  {"name": "chainSlug_", "type": "uint32"},
  {"name": "owner_", "type": "address"},
  {"name": "version_", "type": "string"}
]}]`

type stubArtifacts struct {
	abi string
}

func (s stubArtifacts) Load(spec domain.ContractSpec) (*domain.Artifact, error) {
	parsed, err := abi.JSON(strings.NewReader(s.abi))
	if err != nil {
		return nil, err
	}
	return &domain.Artifact{Name: spec.Name, ABI: parsed, Bytecode: []byte{0x60}}, nil
}

type recordedRun struct {
	dir  string
	args []string
}

func newTestVerifier(output string, runErr error) (*InternalVerifier, *recordedRun) {
	rec := &recordedRun{}
	v := &InternalVerifier{
		projectRoot: "/work/socket-protocol",
		artifacts:   stubArtifacts{abi: socketABI},
		settings:    config.VerifyConfig{CompilerVersion: "0.8.22", OptimizerRuns: 200},
		run: func(_ context.Context, dir string, args []string) ([]byte, error) {
			rec.dir = dir
			rec.args = args
			return []byte(output), runErr
		},
	}
	return v, rec
}

var (
	testChain = &config.ChainConfig{
		Name:           "arbitrum-sepolia",
		Slug:           421614,
		ExplorerAPI:    "https://api-sepolia.arbiscan.io/api",
		ExplorerAPIKey: "KEY",
	}
	owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
)

func socketJob(args ...any) domain.VerificationJob {
	return domain.VerificationJob{
		Address:         common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ContractName:    "Socket",
		SourcePath:      "contracts/protocol/Socket.sol",
		ConstructorArgs: args,
	}
}

func TestVerify_BuildsForgeCommand(t *testing.T) {
	v, rec := newTestVerifier("Contract successfully verified", nil)

	job := socketJob(json.Number("421614"), owner.Hex(), "v1.0.0")
	require.NoError(t, v.Verify(context.Background(), testChain, job))

	assert.Equal(t, "/work/socket-protocol", rec.dir)
	require.GreaterOrEqual(t, len(rec.args), 3)
	assert.Equal(t, "verify-contract", rec.args[0])
	assert.Equal(t, job.Address.Hex(), rec.args[1])
	assert.Equal(t, "contracts/protocol/Socket.sol:Socket", rec.args[2])

	flags := map[string]string{}
	for i := 3; i < len(rec.args); i++ {
		if i+1 < len(rec.args) && !strings.HasPrefix(rec.args[i+1], "--") {
			flags[rec.args[i]] = rec.args[i+1]
			i++
			continue
		}
		flags[rec.args[i]] = ""
	}
	assert.Equal(t, "421614", flags["--chain-id"])
	assert.Equal(t, "https://api-sepolia.arbiscan.io/api", flags["--verifier-url"])
	assert.Equal(t, "KEY", flags["--etherscan-api-key"])
	assert.Equal(t, "0.8.22", flags["--compiler-version"])
	assert.Equal(t, "200", flags["--num-of-optimizations"])
	assert.Contains(t, flags, "--watch")

	// ledger values and typed values encode identically
	parsed, err := abi.JSON(strings.NewReader(socketABI))
	require.NoError(t, err)
	want, err := parsed.Constructor.Inputs.Pack(uint32(421614), owner, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want), flags["--constructor-args"])
}

func TestVerify_NoConstructorArgs(t *testing.T) {
	v, rec := newTestVerifier("Contract successfully verified", nil)
	v.artifacts = nil

	require.NoError(t, v.Verify(context.Background(), testChain, socketJob()))
	assert.NotContains(t, rec.args, "--constructor-args")
}

func TestVerify_Outcomes(t *testing.T) {
	job := socketJob(uint32(421614), owner, "v1.0.0")

	tests := []struct {
		name    string
		output  string
		runErr  error
		wantErr string
	}{
		{name: "verified", output: "Response: `OK`\nDetails: `Pass - Verified`\nContract successfully verified"},
		{name: "already verified exits non-zero", output: "Contract [Socket] is already verified. Skipping verification.", runErr: errors.New("exit status 1")},
		{name: "failure", output: "Error: Fail - Unable to verify", runErr: errors.New("exit status 1"), wantErr: "verification failed: Error: Fail - Unable to verify"},
		{name: "unclear", output: "Submitted contract for verification", wantErr: "verification status unclear"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestVerifier(tt.output, tt.runErr)
			err := v.Verify(context.Background(), testChain, job)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestVerify_Rejects(t *testing.T) {
	v, rec := newTestVerifier("", nil)
	ctx := context.Background()

	err := v.Verify(ctx, &config.ChainConfig{Name: "local", Slug: 31337}, socketJob())
	assert.ErrorContains(t, err, "no explorer API")

	err = v.Verify(ctx, testChain, socketJob(json.Number("421614"), owner.Hex()))
	assert.ErrorContains(t, err, "takes 3 arguments, ledger has 2")

	err = v.Verify(ctx, testChain, socketJob(json.Number("5000000000"), owner.Hex(), "v1.0.0"))
	assert.ErrorContains(t, err, "out of range for uint32")

	err = v.Verify(ctx, testChain, socketJob(json.Number("1"), "not-an-address", "v1.0.0"))
	assert.ErrorContains(t, err, "invalid address")

	assert.Nil(t, rec.args, "forge must not run for rejected jobs")
}

func TestDumpVerifyCommand(t *testing.T) {
	v, _ := newTestVerifier("", nil)
	cmd, err := v.DumpVerifyCommand(testChain, socketJob())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cmd, "forge verify-contract 0x5FbDB2315678afecb367f032d93F642f64180aa3 contracts/protocol/Socket.sol:Socket"))
}
