package interactive

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// ConfirmerAdapter asks a yes/no question on the terminal.
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
	run    func(p *promptui.Prompt) (string, error)
}

// NewConfirmerAdapter creates a new confirmer adapter
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{
		config: cfg,
		run:    func(p *promptui.Prompt) (string, error) { return p.Run() },
	}
}

// Confirm returns true without prompting under --yes or --non-interactive.
func (c *ConfirmerAdapter) Confirm(message string) (bool, error) {
	if !c.config.Interactive() {
		return true, nil
	}

	prompt := &promptui.Prompt{
		Label:     message,
		IsConfirm: true,
	}
	if _, err := c.run(prompt); err != nil {
		// promptui reports "n" as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, fmt.Errorf("confirmation interrupted")
		}
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return true, nil
}

// Ensure the adapter implements the interface
var _ usecase.Confirmer = (*ConfirmerAdapter)(nil)
