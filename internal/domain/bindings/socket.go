package bindings

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

// EIP1967ImplementationSlot is bytes32(uint256(keccak256("eip1967.proxy.implementation")) - 1).
var EIP1967ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

// ERC1967Factory
var (
	FuncDeployAndCall = w3.MustNewFunc(
		"deployAndCall(address implementation,address admin,bytes data)", "address proxy",
	)
	FuncUpgrade = w3.MustNewFunc(
		"upgrade(address proxy,address implementation)", "",
	)
	FuncUpgradeAndCall = w3.MustNewFunc(
		"upgradeAndCall(address proxy,address implementation,bytes data)", "",
	)
	EventDeployed = w3.MustNewEvent(
		"Deployed(address indexed proxy,address indexed implementation,address indexed admin)",
	)
)

// AccessControl
var (
	FuncHasRole   = w3.MustNewFunc("hasRole(bytes32 role,address account)", "bool")
	FuncGrantRole = w3.MustNewFunc("grantRole(bytes32 role,address account)", "")
)

// Socket and plugs
var (
	FuncGetPlugConfig = w3.MustNewFunc(
		"getPlugConfig(address plugAddress)", "bytes32 appGatewayId,address switchboard",
	)
	FuncConnectSocket = w3.MustNewFunc(
		"connectSocket(bytes32 appGatewayId,address socket,address switchboard)", "",
	)
)

// EVMx Configurations and Watcher
var (
	FuncGetPlugConfigs = w3.MustNewFunc(
		"getPlugConfigs(uint32 chainSlug,bytes32 plug)", "bytes32 appGatewayId,bytes32 switchboard",
	)
	FuncSetAppGatewayConfigs = w3.MustNewFunc(
		"setAppGatewayConfigs((bytes32 plug,(bytes32 appGatewayId,bytes32 switchboard) plugConfig,uint32 chainSlug)[] configs)", "",
	)
	FuncGetOnChainContracts = w3.MustNewFunc(
		"getOnChainContracts(uint32 chainSlug)", "bytes32 socket,bytes32 contractFactoryPlug,bytes32 feesPlug",
	)
	FuncSetOnChainContracts = w3.MustNewFunc(
		"setOnChainContracts(uint32 chainSlug,bytes32 socket,bytes32 contractFactoryPlug,bytes32 feesPlug)", "",
	)
	FuncWatcherMultiCall = w3.MustNewFunc(
		"watcherMultiCall((address contractAddress,bytes data,uint256 nonce,bytes signature)[] params)", "",
	)
)

// PlugConfig mirrors the (appGatewayId, switchboard) tuple.
type PlugConfig struct {
	AppGatewayId [32]byte
	Switchboard  [32]byte
}

// AppGatewayConfigParam is one element of setAppGatewayConfigs.
type AppGatewayConfigParam struct {
	Plug       [32]byte
	PlugConfig PlugConfig
	ChainSlug  uint32
}

// WatcherMultiCallParam is one element of watcherMultiCall.
type WatcherMultiCallParam struct {
	ContractAddress common.Address
	Data            []byte
	Nonce           *big.Int
	Signature       []byte
}
