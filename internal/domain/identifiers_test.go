package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressToBytes32_LeftPads(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	b := AddressToBytes32(addr)

	assert.Equal(t, "0x0000000000000000000000005fbdb2315678afecb367f032d93f642f64180aa3", b.Hex())
	assert.Equal(t, addr, b.Address())
	assert.False(t, b.IsZero())
}

func TestParseBytes32(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "checksummed address",
			input: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			want:  "0x0000000000000000000000005fbdb2315678afecb367f032d93f642f64180aa3",
		},
		{
			name:  "padded uppercase",
			input: "0X0000000000000000000000005FBDB2315678AFECB367F032D93F642F64180AA3",
			want:  "0x0000000000000000000000005fbdb2315678afecb367f032d93f642f64180aa3",
		},
		{
			name:  "no prefix",
			input: "5fbdb2315678afecb367f032d93f642f64180aa3",
			want:  "0x0000000000000000000000005fbdb2315678afecb367f032d93f642f64180aa3",
		},
		{
			name:    "bad length",
			input:   "0x1234",
			wantErr: true,
		},
		{
			name:    "not hex",
			input:   "0xzz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBytes32(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Hex())
		})
	}
}

func TestBytes32_TextRoundTrip(t *testing.T) {
	in := AddressToBytes32(common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"))

	text, err := in.MarshalText()
	require.NoError(t, err)

	var out Bytes32
	require.NoError(t, out.UnmarshalText(text))
	assert.True(t, in.Equal(out))
}

func TestRequiredRoles_WatcherAsymmetry(t *testing.T) {
	var watcherRows int
	for name, reqs := range SocketChainRoles {
		for _, r := range reqs {
			if r.Target == RoleTargetWatcher {
				watcherRows++
				assert.Equal(t, FastSwitchboard, name)
				assert.Equal(t, WatcherRole, r.Role)
			}
		}
	}
	assert.Equal(t, 1, watcherRows)

	assert.Equal(t, "WATCHER_ROLE", RoleName(WatcherRole))
	assert.Equal(t, FeesManager, EVMxRoles[FeesPool][0].TargetContract)
}

func TestChainSlug_Parse(t *testing.T) {
	slug, err := ParseChainSlug("421614")
	require.NoError(t, err)
	assert.Equal(t, ChainSlug(421614), slug)
	assert.Equal(t, "421614", slug.String())

	_, err = ParseChainSlug("-1")
	assert.Error(t, err)
}
