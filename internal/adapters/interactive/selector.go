package interactive

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
	run    func(s *promptui.Select) (int, string, error)
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{
		config: cfg,
		run:    func(s *promptui.Select) (int, string, error) { return s.Run() },
	}
}

// SelectChain asks the operator which chain they meant by query.
func (s *SelectorAdapter) SelectChain(query string, chains []*config.ChainConfig) (*config.ChainConfig, error) {
	if !s.config.Interactive() {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains provided for selection")
	}

	options := formatChainOptions(chains)
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := &promptui.Select{
		Label:             fmt.Sprintf("Unknown chain %q, select one", query),
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	}

	index, _, err := s.run(promptSelect)
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return chains[index], nil
}

// formatChainOptions renders "name (slug)" with an EVMx marker.
func formatChainOptions(chains []*config.ChainConfig) []string {
	options := make([]string, len(chains))
	for i, c := range chains {
		name := color.New(color.FgWhite, color.Bold).Sprint(c.Name)
		slug := color.New(color.FgBlue).Sprint(c.Slug.String())
		if c.IsEVMx {
			options[i] = fmt.Sprintf("%s %s (%s)", name, color.New(color.FgYellow).Sprint("[evmx]"), slug)
			continue
		}
		options[i] = fmt.Sprintf("%s (%s)", name, slug)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])
		if strings.Contains(item, input) {
			return true
		}
		return len(fuzzy.Find(input, []string{item})) > 0
	}
}
