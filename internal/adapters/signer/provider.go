package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/socket-deployer/internal/domain"
	"github.com/trebuchet-org/socket-deployer/internal/domain/config"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// Provider holds the parsed private keys of every signer role.
// Missing keys are reported when first used, so read-only commands work
// without any key configured.
type Provider struct {
	keys map[domain.SignerRole]*ecdsa.PrivateKey
	errs map[domain.SignerRole]error
}

// NewProvider parses the configured secrets.
func NewProvider(cfg *config.RuntimeConfig) *Provider {
	p := &Provider{
		keys: map[domain.SignerRole]*ecdsa.PrivateKey{},
		errs: map[domain.SignerRole]error{},
	}
	for role, raw := range map[domain.SignerRole]string{
		domain.SignerSocket:      cfg.Secrets.SocketSignerKey,
		domain.SignerWatcher:     cfg.Secrets.WatcherKey,
		domain.SignerTransmitter: cfg.Secrets.TransmitterKey,
	} {
		if raw == "" {
			continue
		}
		key, err := ParseKey(raw)
		if err != nil {
			p.errs[role] = fmt.Errorf("%s key: %w", role, err)
			continue
		}
		p.keys[role] = key
	}
	return p
}

// ParseKey parses a hex private key with or without 0x prefix.
func ParseKey(raw string) (*ecdsa.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// Key returns the private key of role.
func (p *Provider) Key(role domain.SignerRole) (*ecdsa.PrivateKey, error) {
	if err, ok := p.errs[role]; ok {
		return nil, err
	}
	key, ok := p.keys[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingSigner, role)
	}
	return key, nil
}

// Address returns the address of role.
func (p *Provider) Address(role domain.SignerRole) (common.Address, error) {
	key, err := p.Key(role)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

var _ usecase.SignerProvider = (*Provider)(nil)
