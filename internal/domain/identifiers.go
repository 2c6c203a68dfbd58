package domain

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Bytes32 is the canonical form of every identifier crossing the
// coordination-chain boundary: addresses are left-padded to 32 bytes.
type Bytes32 [32]byte

// AddressToBytes32 left-pads an address.
func AddressToBytes32(addr common.Address) Bytes32 {
	var b Bytes32
	copy(b[12:], addr.Bytes())
	return b
}

// ParseBytes32 accepts a 20-byte address or a 32-byte identifier in hex,
// with or without 0x prefix and in any case.
func ParseBytes32(s string) (Bytes32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Bytes32{}, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	var b Bytes32
	switch len(raw) {
	case common.AddressLength:
		copy(b[12:], raw)
	case 32:
		copy(b[:], raw)
	default:
		return Bytes32{}, fmt.Errorf("invalid identifier length %d", len(raw))
	}
	return b, nil
}

// Address returns the low 20 bytes.
func (b Bytes32) Address() common.Address {
	return common.BytesToAddress(b[12:])
}

// IsZero reports whether every byte is zero.
func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

// Equal compares two identifiers byte-wise.
func (b Bytes32) Equal(o Bytes32) bool {
	return bytes.Equal(b[:], o[:])
}

// Hex returns the lowercase 0x-prefixed encoding.
func (b Bytes32) Hex() string {
	return "0x" + hex.EncodeToString(b[:])
}

func (b Bytes32) String() string { return b.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (b Bytes32) MarshalText() ([]byte, error) {
	return []byte(b.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bytes32) UnmarshalText(text []byte) error {
	v, err := ParseBytes32(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
