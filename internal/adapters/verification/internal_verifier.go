package verification

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os/exec"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// runFunc executes forge in dir and returns its combined output.
type runFunc func(ctx context.Context, dir string, args []string) ([]byte, error)

func runForge(ctx context.Context, dir string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "forge", args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// InternalVerifier submits sources through `forge verify-contract` against
// the chain's Etherscan-compatible API.
type InternalVerifier struct {
	projectRoot string
	artifacts   usecase.ArtifactLoader
	settings    config.VerifyConfig
	run         runFunc
}

// NewInternalVerifier creates a new internal verifier
func NewInternalVerifier(cfg *config.RuntimeConfig, artifacts usecase.ArtifactLoader) *InternalVerifier {
	return &InternalVerifier{
		projectRoot: cfg.ProjectRoot,
		artifacts:   artifacts,
		settings:    cfg.Registry.Verify,
		run:         runForge,
	}
}

// Verify performs one verification attempt.
func (v *InternalVerifier) Verify(ctx context.Context, chain *config.ChainConfig, job domain.VerificationJob) error {
	if chain.ExplorerAPI == "" {
		return fmt.Errorf("chain %s has no explorer API configured", chain.Name)
	}
	args, err := v.buildVerifyArgs(chain, job)
	if err != nil {
		return err
	}
	return v.executeForgeVerify(ctx, args)
}

// DumpVerifyCommand returns the forge command Verify would run.
func (v *InternalVerifier) DumpVerifyCommand(chain *config.ChainConfig, job domain.VerificationJob) (string, error) {
	args, err := v.buildVerifyArgs(chain, job)
	if err != nil {
		return "", err
	}
	return "forge " + strings.Join(args, " "), nil
}

func (v *InternalVerifier) buildVerifyArgs(chain *config.ChainConfig, job domain.VerificationJob) ([]string, error) {
	constructorArgs, err := v.encodeConstructorArgs(job)
	if err != nil {
		return nil, err
	}

	args := []string{
		"verify-contract",
		job.Address.Hex(),
		fmt.Sprintf("%s:%s", job.SourcePath, job.ContractName),
		"--chain-id", chain.Slug.String(),
		"--verifier", "etherscan",
		"--verifier-url", chain.ExplorerAPI,
		"--watch",
	}
	if chain.ExplorerAPIKey != "" {
		args = append(args, "--etherscan-api-key", chain.ExplorerAPIKey)
	}
	if v.settings.CompilerVersion != "" {
		args = append(args, "--compiler-version", v.settings.CompilerVersion)
	}
	if v.settings.OptimizerRuns > 0 {
		args = append(args, "--num-of-optimizations", strconv.Itoa(v.settings.OptimizerRuns))
	}
	if constructorArgs != "" {
		args = append(args, "--constructor-args", constructorArgs)
	}
	return args, nil
}

// encodeConstructorArgs re-encodes the recorded arguments with the
// artifact's constructor ABI. Jobs read back from the ledger carry
// json.Number and hex strings instead of typed values.
func (v *InternalVerifier) encodeConstructorArgs(job domain.VerificationJob) (string, error) {
	if len(job.ConstructorArgs) == 0 {
		return "", nil
	}
	artifact, err := v.artifacts.Load(domain.ContractSpec{Name: job.ContractName, ArtifactPath: job.SourcePath})
	if err != nil {
		return "", err
	}
	inputs := artifact.ABI.Constructor.Inputs
	if len(inputs) != len(job.ConstructorArgs) {
		return "", fmt.Errorf("%s constructor takes %d arguments, ledger has %d", job.ContractName, len(inputs), len(job.ConstructorArgs))
	}

	values := make([]any, len(inputs))
	for i, input := range inputs {
		values[i], err = coerce(input.Type, job.ConstructorArgs[i])
		if err != nil {
			return "", fmt.Errorf("%s constructor argument %q: %w", job.ContractName, input.Name, err)
		}
	}
	packed, err := inputs.Pack(values...)
	if err != nil {
		return "", fmt.Errorf("encode %s constructor: %w", job.ContractName, err)
	}
	return hex.EncodeToString(packed), nil
}

// coerce converts a ledger value into the Go type abi expects for t.
func coerce(t abi.Type, value any) (any, error) {
	want := t.GetType()
	if reflect.TypeOf(value) == want {
		return value, nil
	}

	switch t.T {
	case abi.AddressTy:
		switch val := value.(type) {
		case string:
			if !common.IsHexAddress(val) {
				return nil, fmt.Errorf("invalid address %q", val)
			}
			return common.HexToAddress(val), nil
		case domain.Bytes32:
			return common.BytesToAddress(val[12:]), nil
		}
	case abi.StringTy:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case abi.BoolTy:
		switch val := value.(type) {
		case bool:
			return val, nil
		case string:
			return strconv.ParseBool(val)
		}
	case abi.FixedBytesTy:
		if t.Size == 32 {
			switch val := value.(type) {
			case string:
				return [32]byte(common.HexToHash(val)), nil
			case domain.Bytes32:
				return [32]byte(val), nil
			case common.Hash:
				return [32]byte(val), nil
			}
		}
	case abi.UintTy, abi.IntTy:
		n, err := toBig(value)
		if err != nil {
			return nil, err
		}
		if want == reflect.TypeOf(&big.Int{}) {
			return n, nil
		}
		if t.T == abi.UintTy {
			if n.Sign() < 0 || n.BitLen() > t.Size {
				return nil, fmt.Errorf("%s out of range for uint%d", n, t.Size)
			}
			return reflect.ValueOf(n.Uint64()).Convert(want).Interface(), nil
		}
		if !n.IsInt64() || n.BitLen() >= t.Size {
			return nil, fmt.Errorf("%s out of range for int%d", n, t.Size)
		}
		return reflect.ValueOf(n.Int64()).Convert(want).Interface(), nil
	}
	return nil, fmt.Errorf("cannot use %T as %s", value, t.String())
}

func toBig(value any) (*big.Int, error) {
	switch val := value.(type) {
	case json.Number:
		return parseBig(val.String())
	case string:
		return parseBig(val)
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("non-integer %v", val)
		}
		return big.NewInt(int64(val)), nil
	case *big.Int:
		return new(big.Int).Set(val), nil
	case domain.ChainSlug:
		return new(big.Int).SetUint64(uint64(val)), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	}
	return nil, fmt.Errorf("cannot use %T as an integer", value)
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// executeForgeVerify executes a forge verify-contract command
func (v *InternalVerifier) executeForgeVerify(ctx context.Context, args []string) error {
	output, err := v.run(ctx, v.projectRoot, args)
	outputStr := string(output)
	if alreadyVerified(outputStr) {
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("verification failed: %s", strings.TrimSpace(outputStr))
	}
	if strings.Contains(outputStr, "Contract successfully verified") || strings.Contains(outputStr, "Pass - Verified") {
		return nil
	}
	return fmt.Errorf("verification status unclear: %s", strings.TrimSpace(outputStr))
}

func alreadyVerified(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "already verified")
}

// Ensure it implements the interface
var _ usecase.ContractVerifier = (*InternalVerifier)(nil)
