package testchain

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
)

// CoinBytes returns the compressed encoding of the n-th test coin, that is
// (n+1)*G for the bn254 G1 generator G. Different n give different coins.
func CoinBytes(n uint64) []byte {
	_, _, g1, _ := bn254.Generators()
	var p bn254.G1Affine
	p.ScalarMultiplication(&g1, new(big.Int).SetUint64(n+1))
	b := p.Bytes()
	return b[:]
}

// Coin returns the n-th test coin.
func Coin(n uint64) sigma.PublicCoin {
	c, err := sigma.NewPublicCoin(CoinBytes(n))
	if err != nil {
		panic(err)
	}
	return c
}

// SerialBytes returns the canonical encoding of the n-th test serial (n+1).
func SerialBytes(n uint64) []byte {
	var e fr.Element
	e.SetUint64(n + 1)
	b := e.Bytes()
	return b[:]
}

// Serial returns the n-th test serial.
func Serial(n uint64) sigma.Serial {
	s, err := sigma.NewSerial(SerialBytes(n))
	if err != nil {
		panic(err)
	}
	return s
}
