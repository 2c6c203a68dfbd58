package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

const bpsDenominator = 10_000

// knownMarkupBps lists chains whose fee oracles under-report. Applied only
// when the registry sets no multiplier.
var knownMarkupBps = map[domain.ChainSlug]uint64{
	137:   12_000, // polygon
	80002: 12_000, // polygon amoy
}

// feeOracle is the part of the backend gas pricing needs.
type feeOracle interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// fees is a gas quote. GasPrice is set for legacy transactions, TipCap and
// FeeCap for dynamic ones.
type fees struct {
	GasPrice *big.Int
	TipCap   *big.Int
	FeeCap   *big.Int
}

func multiplierBps(chain *config.ChainConfig) uint64 {
	if chain.GasPriceMultiplierBps > 0 {
		return chain.GasPriceMultiplierBps
	}
	if bps, ok := knownMarkupBps[chain.Slug]; ok {
		return bps
	}
	return bpsDenominator
}

func scale(v *big.Int, bps uint64) *big.Int {
	out := new(big.Int).Mul(v, new(big.Int).SetUint64(bps))
	return out.Div(out, big.NewInt(bpsDenominator))
}

// quoteFees applies the chain's gas policy: a fixed gas_price wins, otherwise
// live values scaled by the multiplier.
func quoteFees(ctx context.Context, b feeOracle, chain *config.ChainConfig) (fees, error) {
	if chain.TxType == config.TxTypeLegacy {
		if chain.HasFixedGasPrice() {
			return fees{GasPrice: new(big.Int).Set(chain.GasPrice)}, nil
		}
		price, err := b.SuggestGasPrice(ctx)
		if err != nil {
			return fees{}, fmt.Errorf("eth_gasPrice: %w", err)
		}
		return fees{GasPrice: scale(price, multiplierBps(chain))}, nil
	}

	if chain.HasFixedGasPrice() {
		return fees{TipCap: new(big.Int).Set(chain.GasPrice), FeeCap: new(big.Int).Set(chain.GasPrice)}, nil
	}

	tip, err := b.SuggestGasTipCap(ctx)
	if err != nil {
		return fees{}, fmt.Errorf("eth_maxPriorityFeePerGas: %w", err)
	}
	head, err := b.HeaderByNumber(ctx, nil)
	if err != nil {
		return fees{}, fmt.Errorf("latest header: %w", err)
	}

	bps := multiplierBps(chain)
	tip = scale(tip, bps)
	var feeCap *big.Int
	if head.BaseFee == nil {
		// pre-London chain answering a dynamic request
		price, err := b.SuggestGasPrice(ctx)
		if err != nil {
			return fees{}, fmt.Errorf("eth_gasPrice: %w", err)
		}
		feeCap = scale(price, bps)
	} else {
		feeCap = new(big.Int).Mul(head.BaseFee, big.NewInt(2))
		feeCap = scale(feeCap, bps)
		feeCap.Add(feeCap, tip)
	}
	if feeCap.Cmp(tip) < 0 {
		feeCap = new(big.Int).Set(tip)
	}
	return fees{TipCap: tip, FeeCap: feeCap}, nil
}
