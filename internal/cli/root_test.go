package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/socket-deployer/internal/app"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
)

type stubConfirmer struct {
	answer bool
	err    error
	asked  []string
}

func (s *stubConfirmer) Confirm(message string) (bool, error) {
	s.asked = append(s.asked, message)
	return s.answer, s.err
}

func testApp(mode domain.DeploymentMode, confirmer *stubConfirmer) *app.App {
	cfg := &config.RuntimeConfig{
		Mode:           mode,
		NonInteractive: true,
		Registry: &config.Registry{
			Chains: map[string]*config.ChainConfig{
				"arbitrum-sepolia": {Name: "arbitrum-sepolia", Slug: 421614},
				"optimism-sepolia": {Name: "optimism-sepolia", Slug: 11155420},
				"evmx":             {Name: "evmx", Slug: 7625382, IsEVMx: true},
			},
			Modes: map[domain.DeploymentMode][]string{
				mode: {"arbitrum-sepolia", "optimism-sepolia", "evmx"},
			},
			EVMxSlug: 7625382,
		},
	}
	return &app.App{Config: cfg, Confirmer: confirmer}
}

func TestBindGlobalFlags(t *testing.T) {
	root := NewRootCmd()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{"--mode", "prod", "--chain", "arbitrum-sepolia,evmx", "--dry-run", "--redeploy", "Socket"}))

	v := viper.New()
	bindGlobalFlags(v, run)

	assert.Equal(t, "prod", v.GetString("mode"))
	assert.Equal(t, []string{"arbitrum-sepolia", "evmx"}, v.GetStringSlice("chain"))
	assert.True(t, v.GetBool("dry_run"))
	assert.Equal(t, []string{"Socket"}, v.GetStringSlice("redeploy"))
	assert.False(t, v.IsSet("yes"))
}

func TestConfirmBroadcast(t *testing.T) {
	chains := []*config.ChainConfig{{Name: "arbitrum-sepolia"}, {Name: "evmx"}}

	t.Run("dev never asks", func(t *testing.T) {
		c := &stubConfirmer{}
		require.NoError(t, confirmBroadcast(testApp(domain.ModeDev, c), chains))
		assert.Empty(t, c.asked)
	})

	t.Run("prod dry run never asks", func(t *testing.T) {
		c := &stubConfirmer{}
		a := testApp(domain.ModeProd, c)
		a.Config.DryRun = true
		require.NoError(t, confirmBroadcast(a, chains))
		assert.Empty(t, c.asked)
	})

	t.Run("prod declined", func(t *testing.T) {
		c := &stubConfirmer{answer: false}
		err := confirmBroadcast(testApp(domain.ModeProd, c), chains)
		assert.ErrorContains(t, err, "aborted")
		require.Len(t, c.asked, 1)
		assert.Contains(t, c.asked[0], "arbitrum-sepolia, evmx")
	})

	t.Run("prod accepted", func(t *testing.T) {
		c := &stubConfirmer{answer: true}
		assert.NoError(t, confirmBroadcast(testApp(domain.ModeProd, c), chains))
	})

	t.Run("prompt error", func(t *testing.T) {
		c := &stubConfirmer{err: errors.New("no tty")}
		assert.ErrorContains(t, confirmBroadcast(testApp(domain.ModeProd, c), chains), "no tty")
	})
}

func TestSelectChains(t *testing.T) {
	a := testApp(domain.ModeStage, &stubConfirmer{})

	chains, err := selectChains(a)
	require.NoError(t, err)
	assert.Len(t, chains, 3)

	a.Config.Chains = []string{"arbitrum-sepolia"}
	chains, err = selectChains(a)
	require.NoError(t, err)
	names := []string{}
	for _, c := range chains {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"arbitrum-sepolia", "evmx"}, names)

	a.Config.Chains = []string{"arb-sepolia"}
	_, err = selectChains(a)
	assert.ErrorIs(t, err, domain.ErrUnknownChain)
	assert.ErrorContains(t, err, `did you mean "arbitrum-sepolia"?`)
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "sockdeploy version")
}
