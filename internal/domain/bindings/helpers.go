package bindings

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
	"github.com/samber/lo"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
)

// ErrNoDeployedEvent is returned when a factory receipt carries no Deployed log.
var ErrNoDeployedEvent = errors.New("Deployed event not found in receipt logs")

// ProxyAddressFromReceipt extracts the proxy created by deployAndCall.
func ProxyAddressFromReceipt(receipt *types.Receipt) (common.Address, error) {
	for _, log := range receipt.Logs {
		var (
			proxy          common.Address
			implementation common.Address
			admin          common.Address
		)
		if err := EventDeployed.DecodeArgs(log, &proxy, &implementation, &admin); err == nil {
			return proxy, nil
		}
	}
	return common.Address{}, ErrNoDeployedEvent
}

// ImplementationFromSlot decodes the address stored in an EIP-1967 slot.
func ImplementationFromSlot(value common.Hash) common.Address {
	return common.BytesToAddress(value[12:])
}

// EncodeInitializer encodes a call from a human-readable signature such as
// "initialize(address,uint32)".
func EncodeInitializer(signature string, args ...any) ([]byte, error) {
	fn, err := w3.NewFunc(signature, "")
	if err != nil {
		return nil, fmt.Errorf("parse initializer %q: %w", signature, err)
	}
	return fn.EncodeArgs(args...)
}

// NewAppGatewayConfigParam converts a wiring fact to its canonical bytes32 form.
func NewAppGatewayConfigParam(c domain.AppGatewayConfig) AppGatewayConfigParam {
	return AppGatewayConfigParam{
		Plug: domain.AddressToBytes32(c.Plug),
		PlugConfig: PlugConfig{
			AppGatewayId: c.AppGatewayID,
			Switchboard:  domain.AddressToBytes32(c.Switchboard),
		},
		ChainSlug: uint32(c.ChainSlug),
	}
}

// DescribeConfigs renders batch entries for logs.
func DescribeConfigs(params []AppGatewayConfigParam) []string {
	return lo.Map(params, func(p AppGatewayConfigParam, _ int) string {
		return fmt.Sprintf("%d:%s->%s", p.ChainSlug, domain.Bytes32(p.Plug).Address().Hex(), domain.Bytes32(p.PlugConfig.AppGatewayId).Hex())
	})
}

// NewWatcherMultiCallParam converts a signed envelope to its ABI form.
func NewWatcherMultiCallParam(e domain.WatcherEnvelope) WatcherMultiCallParam {
	return WatcherMultiCallParam{
		ContractAddress: e.Target,
		Data:            e.Data,
		Nonce:           e.Nonce,
		Signature:       e.Signature,
	}
}
