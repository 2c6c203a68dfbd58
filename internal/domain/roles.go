package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role identifiers, keccak256 of the role name.
var (
	RescueRole              = RoleHash("RESCUE_ROLE")
	GovernanceRole          = RoleHash("GOVERNANCE_ROLE")
	SwitchboardDisablerRole = RoleHash("SWITCHBOARD_DISABLER_ROLE")
	WatcherRole             = RoleHash("WATCHER_ROLE")
	TransmitterRole         = RoleHash("TRANSMITTER_ROLE")
	FeeManagerRole          = RoleHash("FEE_MANAGER_ROLE")
)

// RoleHash hashes a role name.
func RoleHash(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

var roleNames = map[common.Hash]string{
	RescueRole:              "RESCUE_ROLE",
	GovernanceRole:          "GOVERNANCE_ROLE",
	SwitchboardDisablerRole: "SWITCHBOARD_DISABLER_ROLE",
	WatcherRole:             "WATCHER_ROLE",
	TransmitterRole:         "TRANSMITTER_ROLE",
	FeeManagerRole:          "FEE_MANAGER_ROLE",
}

// RoleName returns the readable name of a known role, or its hex hash.
func RoleName(role common.Hash) string {
	if n, ok := roleNames[role]; ok {
		return n
	}
	return role.Hex()
}

// RoleTargetKind says how the grantee of a role is resolved.
type RoleTargetKind int

const (
	// RoleTargetSelf grants to the invoking chain signer.
	RoleTargetSelf RoleTargetKind = iota
	// RoleTargetWatcher grants to the external watcher operator.
	RoleTargetWatcher
	// RoleTargetTransmitter grants to the transmitter operator.
	RoleTargetTransmitter
	// RoleTargetContract grants to another contract on the same chain.
	RoleTargetContract
)

// RoleRequirement is one row of the required-roles table.
type RoleRequirement struct {
	Role   common.Hash
	Target RoleTargetKind
	// TargetContract is set for RoleTargetContract
	TargetContract string
}

// RequiredRoles is the static contract → roles table. Every role goes to
// the chain signer except WATCHER_ROLE on the switchboard, TRANSMITTER_ROLE on
// the auction manager and FEE_MANAGER_ROLE on the fees pool.
type RequiredRoles map[string][]RoleRequirement

// SocketChainRoles is the table applied to every socket chain.
var SocketChainRoles = RequiredRoles{
	Socket: {
		{Role: RescueRole},
		{Role: GovernanceRole},
		{Role: SwitchboardDisablerRole},
	},
	FastSwitchboard: {
		{Role: RescueRole},
		{Role: WatcherRole, Target: RoleTargetWatcher},
	},
	FeesPlug: {
		{Role: RescueRole},
	},
	ContractFactoryPlug: {
		{Role: RescueRole},
	},
}

// EVMxRoles is the table applied to the coordination chain.
var EVMxRoles = RequiredRoles{
	AuctionManager: {
		{Role: TransmitterRole, Target: RoleTargetTransmitter},
	},
	FeesPool: {
		{Role: FeeManagerRole, Target: RoleTargetContract, TargetContract: FeesManager},
	},
}

// RolesFor returns the table for a chain.
func RolesFor(isEVMx bool) RequiredRoles {
	if isEVMx {
		return EVMxRoles
	}
	return SocketChainRoles
}
