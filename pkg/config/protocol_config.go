package config

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/sigma-go/pkg/config/netmode"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/sigma/activation"
)

// DefaultMemPoolSize is the memory pool size used when the configuration
// doesn't specify one.
const DefaultMemPoolSize = 50000

// ProtocolConfiguration represents the protocol config.
type (
	ProtocolConfiguration struct {
		Magic       netmode.Magic `yaml:"Magic"`
		MemPoolSize int           `yaml:"MemPoolSize"`
		// SigmaActivations is the coin group schedule per denomination. Group
		// 1 of every denomination is open from genesis if it's empty.
		SigmaActivations map[sigma.Denomination][]activation.Point `yaml:"SigmaActivations"`
		// Whether to verify received blocks.
		VerifyBlocks bool `yaml:"VerifyBlocks"`
		// Whether to verify sigma transactions of the blocks already on the
		// chain when rebuilding the registry.
		VerifyTransactions bool `yaml:"VerifyTransactions"`
	}
)

// Validate checks ProtocolConfiguration for internal consistency and returns
// an error if anything inappropriate found.
func (p *ProtocolConfiguration) Validate() error {
	if p.Magic == 0 {
		return errNoNetwork
	}
	if p.MemPoolSize <= 0 {
		return fmt.Errorf("invalid MemPoolSize %d", p.MemPoolSize)
	}
	_, err := p.Policy()
	return err
}

// Policy returns the activation policy described by SigmaActivations.
func (p *ProtocolConfiguration) Policy() (*activation.Policy, error) {
	if len(p.SigmaActivations) == 0 {
		return activation.Always(), nil
	}
	policy, err := activation.New(p.SigmaActivations)
	if err != nil {
		return nil, fmt.Errorf("SigmaActivations: %w", err)
	}
	return policy, nil
}

var errNoNetwork = errors.New("network magic is not set")
