package interactive

import (
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

func TestConfirmerAdapter(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.RuntimeConfig
		answerErr error
		want      bool
		wantErr   bool
		prompted  bool
	}{
		{name: "yes flag skips prompt", cfg: config.RuntimeConfig{Yes: true}, want: true},
		{name: "non-interactive skips prompt", cfg: config.RuntimeConfig{NonInteractive: true}, want: true},
		{name: "accepted", want: true, prompted: true},
		{name: "declined", answerErr: promptui.ErrAbort, want: false, prompted: true},
		{name: "interrupted", answerErr: promptui.ErrInterrupt, wantErr: true, prompted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfirmerAdapter(&tt.cfg)
			prompted := false
			c.run = func(p *promptui.Prompt) (string, error) {
				prompted = true
				assert.True(t, p.IsConfirm)
				return "y", tt.answerErr
			}

			got, err := c.Confirm("Broadcast to prod?")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.prompted, prompted)
		})
	}
}

func TestSelectorAdapter_SelectChain(t *testing.T) {
	chains := []*config.ChainConfig{
		{Name: "arbitrum-sepolia", Slug: 421614},
		{Name: "optimism-sepolia", Slug: 11155420},
		{Name: "evmx", Slug: 7625382, IsEVMx: true},
	}

	s := NewSelectorAdapter(&config.RuntimeConfig{})
	s.run = func(sel *promptui.Select) (int, string, error) {
		assert.True(t, sel.StartInSearchMode)
		assert.Contains(t, sel.Label, "arbitrum-sepoila")
		return 0, "", nil
	}
	got, err := s.SelectChain("arbitrum-sepoila", chains)
	require.NoError(t, err)
	assert.Equal(t, "arbitrum-sepolia", got.Name)

	s.run = func(*promptui.Select) (int, string, error) { return 0, "", errors.New("^C") }
	_, err = s.SelectChain("x", chains)
	assert.ErrorContains(t, err, "selection cancelled")

	_, err = NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true}).SelectChain("x", chains)
	assert.Error(t, err)
}

func TestFuzzySearch(t *testing.T) {
	items := []string{"arbitrum-sepolia (421614)", "optimism-sepolia (11155420)"}
	search := createFuzzySearchFunc(items)

	assert.True(t, search("", 1))
	assert.True(t, search("ARB", 0))
	assert.True(t, search("opsep", 1))
	assert.False(t, search("opsep", 0))
}
