package netmode

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MainNet contains magic code used in the main network.
	MainNet Magic = 0xe3d9fef1
	// TestNet contains magic code used in the testing network.
	TestNet Magic = 0xcffcbeea
	// PrivNet contains magic code usually used for private networks.
	PrivNet Magic = 0xfabfb5da
	// UnitTestNet is a stub magic code used for testing purposes.
	UnitTestNet Magic = 42
)

// Magic describes the network the blockchain will operate on.
type Magic uint32

// String implements the stringer interface.
func (n Magic) String() string {
	switch n {
	case PrivNet:
		return "privnet"
	case TestNet:
		return "testnet"
	case MainNet:
		return "mainnet"
	case UnitTestNet:
		return "unit_testnet"
	default:
		return "net 0x" + strconv.FormatUint(uint64(n), 16)
	}
}

// Parse returns the magic for the given network name.
func Parse(s string) (Magic, error) {
	for _, m := range []Magic{MainNet, TestNet, PrivNet, UnitTestNet} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown network %q", s)
}
