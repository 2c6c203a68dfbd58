package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// StatusRenderer prints the address ledger of a mode.
type StatusRenderer struct {
	out  io.Writer
	live bool
}

// NewStatusRenderer creates a new StatusRenderer
func NewStatusRenderer(out io.Writer, live bool) *StatusRenderer {
	return &StatusRenderer{out: out, live: live}
}

// Render prints one table per chain.
func (r *StatusRenderer) Render(result *usecase.StatusResult) error {
	fmt.Fprintf(r.out, "%s %s\n\n", sectionHeaderStyle.Sprint("Mode:"), result.Mode)

	for _, status := range result.Chains {
		fmt.Fprintln(r.out, chainTitle(status.Chain.Name, status.Chain.Slug, status.Chain.IsEVMx))
		if status.Entry == nil || len(status.Entry.Contracts) == 0 {
			fmt.Fprintln(r.out, faintStyle.Sprint("  nothing deployed"))
			fmt.Fprintln(r.out)
			continue
		}

		fmt.Fprintf(r.out, "  start block %d", status.Entry.StartBlock)
		if status.PendingVerification > 0 {
			fmt.Fprint(r.out, warnStyle.Sprintf(", %d pending verification", status.PendingVerification))
		}
		fmt.Fprintln(r.out)

		names := lo.Keys(status.Entry.Contracts)
		sort.Strings(names)
		t := newTable()
		for _, name := range names {
			row := table.Row{name, addressStyle.Sprint(status.Entry.Contracts[name].Hex())}
			if r.live && status.CheckErr == nil {
				if lo.Contains(status.Missing, name) {
					row = append(row, failStyle.Sprint("✗ no code"))
				} else {
					row = append(row, okStyle.Sprint("✓"))
				}
			}
			t.AppendRow(row)
		}
		fmt.Fprintln(r.out, t.Render())
		if status.CheckErr != nil {
			fmt.Fprintln(r.out, "  "+FormatWarning(fmt.Sprintf("live check failed: %v", status.CheckErr)))
		}
		fmt.Fprintln(r.out)
	}
	return nil
}
