package render

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	chainHeader        = color.New(color.BgCyan, color.FgBlack, color.Bold)
	evmxHeader         = color.New(color.BgYellow, color.FgBlack, color.Bold)
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
	addressStyle       = color.New(color.FgWhite)
	faintStyle         = color.New(color.Faint)
	okStyle            = color.New(color.FgGreen)
	warnStyle          = color.New(color.FgYellow)
	failStyle          = color.New(color.FgRed)
)

// Title converts a stage or action name into a heading.
func Title(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	return failStyle.Sprintf("❌ %s", message)
}

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return warnStyle.Sprintf("⚠️  %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return okStyle.Sprintf("✅ %s", message)
}

func txLink(hash *common.Hash) string {
	if hash == nil {
		return ""
	}
	return faintStyle.Sprint(hash.Hex())
}

func shortHex(addr common.Address) string {
	h := addr.Hex()
	return h[:8] + "…" + h[len(h)-6:]
}

func chainTitle(name string, slug fmt.Stringer, evmx bool) string {
	label := fmt.Sprintf(" %s (%s) ", name, slug)
	if evmx {
		return evmxHeader.Sprint(label + "[evmx] ")
	}
	return chainHeader.Sprint(label)
}

// newTable returns the borderless table style used by every renderer.
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:  "  ",
		PaddingRight: "  ",
	}
	return t
}
