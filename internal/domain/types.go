package domain

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ChainSlug is the protocol-level chain identifier.
type ChainSlug uint32

func (s ChainSlug) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// ParseChainSlug parses the stringified slug used as ledger key.
func ParseChainSlug(s string) (ChainSlug, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid chain slug %q: %w", s, err)
	}
	return ChainSlug(v), nil
}

// DeploymentMode selects an isolated ledger and chain set.
type DeploymentMode string

const (
	ModeDev   DeploymentMode = "dev"
	ModeStage DeploymentMode = "stage"
	ModeProd  DeploymentMode = "prod"
)

// Valid reports whether m is one of the known modes.
func (m DeploymentMode) Valid() bool {
	switch m {
	case ModeDev, ModeStage, ModeProd:
		return true
	}
	return false
}

// SignerRole names one of the configured private keys.
type SignerRole string

const (
	SignerSocket      SignerRole = "socket"
	SignerWatcher     SignerRole = "watcher"
	SignerTransmitter SignerRole = "transmitter"
)

// ImplSuffix marks the ledger key holding a proxy's raw implementation.
const ImplSuffix = "Impl"

// ImplKey returns the ledger key of the implementation behind a proxied contract.
func ImplKey(name string) string {
	return name + ImplSuffix
}

// ChainTopologyEntry is the ledger view of one chain in one mode.
type ChainTopologyEntry struct {
	ChainSlug  ChainSlug
	Contracts  map[string]common.Address
	IsEVMx     bool
	StartBlock uint64
}

// Address returns the recorded address of a contract.
func (e *ChainTopologyEntry) Address(name string) (common.Address, bool) {
	if e == nil {
		return common.Address{}, false
	}
	addr, ok := e.Contracts[name]
	return addr, ok && addr != (common.Address{})
}

// DeploymentRecord is the persisted ledger for one deployment mode.
type DeploymentRecord map[ChainSlug]*ChainTopologyEntry

// Entry returns the entry of a chain, or nil.
func (r DeploymentRecord) Entry(slug ChainSlug) *ChainTopologyEntry {
	return r[slug]
}

// ContractRef is a constructor or initializer argument resolved to the
// recorded address of another contract. A zero Chain means the chain
// being deployed.
type ContractRef struct {
	Chain ChainSlug
	Name  string
}

// SignerRef is an argument resolved to the address of a signer role.
type SignerRef struct {
	Role SignerRole
}

// InitializerCall is the initializer invoked through the proxy factory.
type InitializerCall struct {
	Signature string
	Args      []any
}

// ContractSpec describes a contract to ensure on a chain. Name is the
// idempotency key against the ledger.
type ContractSpec struct {
	Name            string
	ArtifactPath    string
	ConstructorArgs []any
	Proxied         bool
	Initializer     *InitializerCall
	// Reinitializer is sent through upgradeAndCall when the implementation changes
	Reinitializer *InitializerCall
}

// AppGatewayConfig is one wiring fact: plug on a chain bound to an app
// gateway through a switchboard.
type AppGatewayConfig struct {
	Plug         common.Address
	AppGatewayID Bytes32
	Switchboard  common.Address
	ChainSlug    ChainSlug
}

// Key returns the unique key (chainSlug, plug) of the link.
func (c AppGatewayConfig) Key() string {
	return c.ChainSlug.String() + ":" + AddressToBytes32(c.Plug).Hex()
}

// RoleGrant is a desired role membership.
type RoleGrant struct {
	ContractName string
	Role         common.Hash
	Target       common.Address
}

// Call is a raw transaction request handed to the submitter. A nil To
// creates a contract from Data.
type Call struct {
	To     *common.Address
	Data   []byte
	Value  *big.Int
	Signer SignerRole
	// Label identifies the call in logs
	Label string
}

// WatcherEnvelope is one signed entry of a watcher multicall.
type WatcherEnvelope struct {
	Target    common.Address
	Data      []byte
	Nonce     *big.Int
	Signature []byte
}

// VerificationJob is a pending explorer verification.
type VerificationJob struct {
	Address         common.Address
	ContractName    string
	SourcePath      string
	ConstructorArgs []any
}

// Artifact is a compiled contract.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// CreationCode appends the ABI-encoded constructor arguments to the bytecode.
func (a *Artifact) CreationCode(args ...any) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s constructor: %w", a.Name, err)
	}
	code := make([]byte, 0, len(a.Bytecode)+len(packed))
	code = append(code, a.Bytecode...)
	return append(code, packed...), nil
}
