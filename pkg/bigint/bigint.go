// Package bigint provides arbitrary-precision signed integer support for
// the secp-style builtins (EC-op, ECDSA) whose 256-bit scalars need exact
// arithmetic before being reduced into the Stark prime field.
package bigint

import (
	"math/big"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
)

// Int is a thin wrapper over math/big.Int giving it the conversions this
// codebase needs to and from felt.Felt, without ever panicking.
type Int struct {
	*big.Int
}

// New wraps a freshly allocated zero-valued big integer.
func New() Int {
	return Int{new(big.Int)}
}

// FromFelt lifts a field element into BigInt space without reduction:
// the felt's canonical representative in [0, P) becomes the BigInt's
// value directly.
func FromFelt(f felt.Felt) Int {
	return Int{f.ToBigInt()}
}

// FromInt64 builds a BigInt from a native signed integer.
func FromInt64(v int64) Int {
	return Int{big.NewInt(v)}
}

// ToFelt reduces the BigInt modulo the Stark prime. Never panics: a
// negative value is reduced into its positive residue by felt.FromBigInt.
func (i Int) ToFelt() felt.Felt {
	return felt.FromBigInt(i.Int)
}

// FromBytesLE decodes a little-endian byte slice as an unsigned BigInt.
func FromBytesLE(b []byte) Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return Int{new(big.Int).SetBytes(be)}
}

// ToBytesLE encodes the BigInt as width little-endian bytes, truncating
// or zero-padding as needed.
func (i Int) ToBytesLE(width int) []byte {
	be := i.Bytes()
	out := make([]byte, width)
	for idx := 0; idx < len(be) && idx < width; idx++ {
		out[idx] = be[len(be)-1-idx]
	}
	return out
}

// Add returns a + b as a new Int.
func Add(a, b Int) Int { return Int{new(big.Int).Add(a.Int, b.Int)} }

// Sub returns a - b as a new Int.
func Sub(a, b Int) Int { return Int{new(big.Int).Sub(a.Int, b.Int)} }

// Mul returns a * b as a new Int.
func Mul(a, b Int) Int { return Int{new(big.Int).Mul(a.Int, b.Int)} }

// Mod returns a mod m as a new, non-negative Int.
func Mod(a, m Int) Int { return Int{new(big.Int).Mod(a.Int, m.Int)} }
