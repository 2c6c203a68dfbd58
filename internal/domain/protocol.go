package domain

// Contract names used as ledger keys.
const (
	Socket              = "Socket"
	SocketBatcher       = "SocketBatcher"
	FastSwitchboard     = "FastSwitchboard"
	FeesPlug            = "FeesPlug"
	ContractFactoryPlug = "ContractFactoryPlug"

	ERC1967Factory  = "ERC1967Factory"
	AddressResolver = "AddressResolver"
	Watcher         = "Watcher"
	Configurations  = "Configurations"
	FeesPool        = "FeesPool"
	FeesManager     = "FeesManager"
	AuctionManager  = "AuctionManager"
	AsyncDeployer   = "AsyncDeployer"
	DeployForwarder = "DeployForwarder"
	WritePrecompile = "WritePrecompile"
)

// ProtocolVersion is passed to the Socket constructor.
const ProtocolVersion = "v1.0.0"

// SocketChainContracts returns the deployment sequence of a socket chain.
// Order matters: later entries reference earlier ones.
func SocketChainContracts(slug ChainSlug) []ContractSpec {
	owner := SignerRef{Role: SignerSocket}
	socket := ContractRef{Name: Socket}
	return []ContractSpec{
		{
			Name:            Socket,
			ArtifactPath:    "contracts/protocol/Socket.sol",
			ConstructorArgs: []any{uint32(slug), owner, ProtocolVersion},
		},
		{
			Name:            SocketBatcher,
			ArtifactPath:    "contracts/protocol/SocketBatcher.sol",
			ConstructorArgs: []any{owner, socket},
		},
		{
			Name:            FastSwitchboard,
			ArtifactPath:    "contracts/protocol/switchboard/FastSwitchboard.sol",
			ConstructorArgs: []any{uint32(slug), socket, owner},
		},
		{
			Name:            FeesPlug,
			ArtifactPath:    "contracts/evmx/plugs/FeesPlug.sol",
			ConstructorArgs: []any{socket, owner},
		},
		{
			Name:            ContractFactoryPlug,
			ArtifactPath:    "contracts/evmx/plugs/ContractFactoryPlug.sol",
			ConstructorArgs: []any{socket, owner},
		},
	}
}

// EVMxContracts returns the deployment sequence of the coordination chain.
func EVMxContracts(slug ChainSlug) []ContractSpec {
	owner := SignerRef{Role: SignerSocket}
	resolver := ContractRef{Name: AddressResolver}
	watcher := ContractRef{Name: Watcher}
	return []ContractSpec{
		{
			Name:         ERC1967Factory,
			ArtifactPath: "lib/solady/src/utils/ERC1967Factory.sol",
		},
		{
			Name:         AddressResolver,
			ArtifactPath: "contracts/evmx/helpers/AddressResolver.sol",
			Proxied:      true,
			Initializer:  &InitializerCall{Signature: "initialize(address)", Args: []any{owner}},
		},
		{
			Name:         Watcher,
			ArtifactPath: "contracts/evmx/watcher/Watcher.sol",
			Proxied:      true,
			Initializer: &InitializerCall{
				Signature: "initialize(uint32,address,address)",
				Args:      []any{uint32(slug), owner, resolver},
			},
		},
		{
			Name:         Configurations,
			ArtifactPath: "contracts/evmx/watcher/Configurations.sol",
			Proxied:      true,
			Initializer: &InitializerCall{
				Signature: "initialize(address,address)",
				Args:      []any{watcher, owner},
			},
		},
		{
			Name:            FeesPool,
			ArtifactPath:    "contracts/evmx/fees/FeesPool.sol",
			ConstructorArgs: []any{owner},
		},
		{
			Name:         FeesManager,
			ArtifactPath: "contracts/evmx/fees/FeesManager.sol",
			Proxied:      true,
			Initializer: &InitializerCall{
				Signature: "initialize(uint32,address,address,address)",
				Args:      []any{uint32(slug), resolver, ContractRef{Name: FeesPool}, owner},
			},
		},
		{
			Name:         AuctionManager,
			ArtifactPath: "contracts/evmx/AuctionManager.sol",
			Proxied:      true,
			Initializer: &InitializerCall{
				Signature: "initialize(uint32,address,address)",
				Args:      []any{uint32(slug), resolver, owner},
			},
		},
		{
			Name:         AsyncDeployer,
			ArtifactPath: "contracts/evmx/helpers/AsyncDeployer.sol",
			Proxied:      true,
			Initializer: &InitializerCall{
				Signature: "initialize(address,address)",
				Args:      []any{owner, resolver},
			},
		},
		{
			Name:         DeployForwarder,
			ArtifactPath: "contracts/evmx/helpers/DeployForwarder.sol",
			Proxied:      true,
			Initializer: &InitializerCall{
				Signature: "initialize(address,address)",
				Args:      []any{owner, resolver},
			},
		},
		{
			Name:         WritePrecompile,
			ArtifactPath: "contracts/evmx/watcher/precompiles/WritePrecompile.sol",
			Proxied:      true,
			Initializer: &InitializerCall{
				Signature: "initialize(address,address)",
				Args:      []any{owner, watcher},
			},
		},
	}
}

// PlugGateways maps each socket-chain plug to the EVMx contract acting as its
// app gateway.
var PlugGateways = map[string]string{
	FeesPlug:            FeesManager,
	ContractFactoryPlug: WritePrecompile,
}
