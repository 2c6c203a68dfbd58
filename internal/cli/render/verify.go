package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// VerifyRenderer prints the outcome of draining the verification ledger.
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new VerifyRenderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// Render prints verified and remaining counts per chain.
func (r *VerifyRenderer) Render(chains []*config.ChainConfig, result *usecase.VerifyResult) error {
	names := map[domain.ChainSlug]string{}
	for _, c := range chains {
		names[c.Slug] = c.Name
	}

	slugs := make([]domain.ChainSlug, 0, len(result.Remaining))
	for slug := range result.Remaining {
		slugs = append(slugs, slug)
	}
	sort.Slice(slugs, func(i, j int) bool { return slugs[i] < slugs[j] })

	if len(slugs) == 0 {
		fmt.Fprintln(r.out, "Nothing to verify")
		return nil
	}

	remaining := 0
	for _, slug := range slugs {
		line := fmt.Sprintf("%s: %d verified", names[slug], result.Verified[slug])
		if n := result.Remaining[slug]; n > 0 {
			remaining += n
			fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%s, %d remaining", line, n)))
			continue
		}
		fmt.Fprintln(r.out, FormatSuccess(line))
	}
	if remaining > 0 {
		fmt.Fprintf(r.out, "\n%d contracts are still pending; run verify again later\n", remaining)
	}
	return nil
}
