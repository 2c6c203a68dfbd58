package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// ChainsRenderer prints the chain registry.
type ChainsRenderer struct {
	out io.Writer
}

// NewChainsRenderer creates a new ChainsRenderer
func NewChainsRenderer(out io.Writer) *ChainsRenderer {
	return &ChainsRenderer{out: out}
}

// Render lists chains of the selected mode with their gas policy.
func (r *ChainsRenderer) Render(chains []*config.ChainConfig) error {
	if len(chains) == 0 {
		fmt.Fprintln(r.out, "No chains configured")
		return nil
	}
	sorted := append([]*config.ChainConfig(nil), chains...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })

	t := newTable()
	t.AppendHeader(table.Row{"Name", "Slug", "RPC", "Tx", "Gas", "Confirmations", "Explorer"})
	for _, c := range sorted {
		name := c.Name
		if c.IsEVMx {
			name += warnStyle.Sprint(" [evmx]")
		}
		rpc := okStyle.Sprint("✓")
		if c.RPC == "" {
			rpc = failStyle.Sprintf("missing %s", c.RPCEnv)
		}
		t.AppendRow(table.Row{name, c.Slug.String(), rpc, txTypeLabel(c.TxType), gasPolicy(c), c.Confirmations, faintStyle.Sprint(c.Explorer)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

func txTypeLabel(txType int) string {
	if txType == 0 {
		return "legacy"
	}
	return fmt.Sprintf("type %d", txType)
}

func gasPolicy(c *config.ChainConfig) string {
	var policy string
	switch {
	case c.HasFixedGasPrice():
		policy = fmt.Sprintf("fixed %s wei", c.GasPrice)
	case c.GasPriceMultiplierBps > 0:
		policy = fmt.Sprintf("live × %.2f", float64(c.GasPriceMultiplierBps)/10000)
	default:
		policy = "live"
	}
	if c.GasLimit > 0 {
		policy += fmt.Sprintf(", limit %d", c.GasLimit)
	}
	return policy
}
