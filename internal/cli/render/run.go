package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// RunRenderer prints the outcome of a reconciliation run.
type RunRenderer struct {
	out    io.Writer
	dryRun bool
}

// NewRunRenderer creates a new RunRenderer
func NewRunRenderer(out io.Writer, dryRun bool) *RunRenderer {
	return &RunRenderer{out: out, dryRun: dryRun}
}

// Render prints per-chain deploy and role results, then the topology summary.
func (r *RunRenderer) Render(result *usecase.RunResult) error {
	if r.dryRun {
		fmt.Fprintln(r.out, FormatWarning("Dry run: nothing was broadcast"))
		fmt.Fprintln(r.out)
	}

	for _, report := range result.Chains {
		fmt.Fprintln(r.out, chainTitle(report.Chain.Name, report.Chain.Slug, report.Chain.IsEVMx))
		if report.Deploy != nil {
			r.renderDeploy(report.Deploy)
		}
		if report.Roles != nil {
			r.renderRoles(report.Roles)
		}
		if report.Err != nil {
			fmt.Fprintln(r.out, "  "+FormatError(report.Err.Error()))
		}
		fmt.Fprintln(r.out)
	}

	if result.DesiredLink > 0 || result.PointersTx != nil || len(result.LinkErrors) > 0 || result.CoordinationFailed() {
		r.renderTopology(result)
	}

	if result.Failed() {
		fmt.Fprintln(r.out, FormatError("Run finished with failures; rerun to resume"))
	} else {
		fmt.Fprintln(r.out, FormatSuccess("Run finished"))
	}
	return nil
}

func (r *RunRenderer) renderDeploy(res *usecase.ChainDeployResult) {
	fmt.Fprintln(r.out, sectionHeaderStyle.Sprint("  "+Title(usecase.StageDeploy)))
	t := newTable()
	for _, c := range res.Contracts {
		t.AppendRow(table.Row{c.Name, actionLabel(c.Action), addressStyle.Sprint(c.Address.Hex()), txLink(c.TxHash)})
	}
	if t.Length() > 0 {
		fmt.Fprintln(r.out, t.Render())
	}
	if res.Err != nil {
		fmt.Fprintln(r.out, "  "+FormatError(res.Err.Error()))
	}
}

func actionLabel(a usecase.DeployAction) string {
	switch a {
	case usecase.ActionDeployed, usecase.ActionUpgraded:
		return okStyle.Sprint(Title(string(a)))
	case usecase.ActionSkipped:
		return warnStyle.Sprint(Title(string(a)))
	default:
		return faintStyle.Sprint(Title(string(a)))
	}
}

func (r *RunRenderer) renderRoles(res *usecase.ChainRoleResult) {
	failed := res.Failed()
	fmt.Fprintf(r.out, "%s  %d granted, %d held, %d failed\n",
		sectionHeaderStyle.Sprint("  "+Title(usecase.StageRoles)),
		res.Granted(), len(res.Roles)-res.Granted()-len(failed), len(failed))
	for _, f := range failed {
		fmt.Fprintf(r.out, "    %s %s %s → %s: %s\n",
			failStyle.Sprint("✗"), f.Contract, domain.RoleName(f.Role), shortHex(f.Target), f.Err)
	}
}

func (r *RunRenderer) renderTopology(result *usecase.RunResult) {
	fmt.Fprintln(r.out, sectionHeaderStyle.Sprint(Title(usecase.StageTopology)))
	t := newTable()
	t.AppendRow(table.Row{"Chain pointers", r.batchStatus(result.PointersTx, len(result.Pointers.Updated))})
	t.AppendRow(table.Row{"Desired links", result.DesiredLink})
	t.AppendRow(table.Row{"Plugs connected", result.Topology.Connected})
	if result.Topology.SocketFails > 0 {
		t.AppendRow(table.Row{"Plug failures", failStyle.Sprint(result.Topology.SocketFails)})
	}
	t.AppendRow(table.Row{"App gateway configs", fmt.Sprintf("%d %s", result.Topology.BatchSize, r.batchStatus(result.ConfigsTx, result.Topology.BatchSize))})
	if reads := result.Topology.ReadFails + result.Pointers.ReadFails; reads > 0 {
		t.AppendRow(table.Row{"EVMx read failures", failStyle.Sprint(reads)})
	}
	fmt.Fprintln(r.out, t.Render())
	for _, e := range result.LinkErrors {
		fmt.Fprintln(r.out, "  "+FormatWarning(e.Error()))
	}
	for _, e := range result.CoordinationErrs {
		fmt.Fprintln(r.out, "  "+FormatError(e.Error()))
	}
	fmt.Fprintln(r.out)
}

// batchStatus distinguishes a batch that was not needed from one that was
// needed but never landed.
func (r *RunRenderer) batchStatus(hash *common.Hash, pending int) string {
	if hash == nil && pending > 0 {
		if r.dryRun {
			return warnStyle.Sprint("would send")
		}
		return failStyle.Sprint("failed")
	}
	return txOrNoop(hash)
}

func txOrNoop(hash *common.Hash) string {
	if hash == nil {
		return faintStyle.Sprint("no-op")
	}
	return txLink(hash)
}
