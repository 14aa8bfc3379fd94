// Package felt implements arithmetic over the Stark prime field
// P = 2^251 + 17*2^192 + 1, the field every Cairo memory cell's
// numeric component lives in.
package felt

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Felt is an element of the Stark prime field, held in the same
// Montgomery-form representation gnark-crypto uses internally so that
// every arithmetic operation below is a thin pass-through.
type Felt struct {
	inner fp.Element
}

// Zero returns the additive identity.
func Zero() Felt { return Felt{} }

// One returns the multiplicative identity.
func One() Felt {
	var e fp.Element
	e.SetOne()
	return Felt{e}
}

// FromUint64 builds a Felt from a native unsigned integer.
func FromUint64(v uint64) Felt {
	var e fp.Element
	e.SetUint64(v)
	return Felt{e}
}

// FromInt64 builds a Felt from a signed integer, wrapping negative
// values modulo P.
func FromInt64(v int64) Felt {
	var b big.Int
	b.SetInt64(v)
	return FromBigInt(&b)
}

// FromBigInt reduces an arbitrary-precision integer modulo P.
func FromBigInt(v *big.Int) Felt {
	var e fp.Element
	e.SetBigInt(v)
	return Felt{e}
}

// FromHex parses a "0x..."-prefixed hex string. A string without the
// prefix is read as decimal.
func FromHex(s string) (Felt, error) {
	var e fp.Element
	if _, err := e.SetString(s); err != nil {
		return Felt{}, err
	}
	return Felt{e}, nil
}

// FromDecString parses a decimal string, positive or negative.
func FromDecString(s string) (Felt, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Felt{}, errors.New("felt: invalid decimal string")
	}
	return FromBigInt(b), nil
}

// FromBytesLE interprets 32 little-endian bytes as a field element.
func FromBytesLE(b [32]byte) Felt {
	be := reverse(b)
	var e fp.Element
	e.SetBytes(be[:])
	return Felt{e}
}

// FromBytesBE interprets 32 big-endian bytes as a field element.
func FromBytesBE(b [32]byte) Felt {
	var e fp.Element
	e.SetBytes(b[:])
	return Felt{e}
}

// ToBytesLE returns the canonical representative as 32 little-endian bytes.
func (f Felt) ToBytesLE() [32]byte {
	be := f.inner.Bytes()
	return reverse(be)
}

// ToBytesBE returns the canonical representative as 32 big-endian bytes.
func (f Felt) ToBytesBE() [32]byte {
	return f.inner.Bytes()
}

func reverse(b [32]byte) [32]byte {
	var out [32]byte
	for i := range b {
		out[i] = b[31-i]
	}
	return out
}

// ToBigInt returns the canonical representative as an arbitrary
// precision integer in [0, P).
func (f Felt) ToBigInt() *big.Int {
	var b big.Int
	f.inner.BigInt(&b)
	return &b
}

// ToU64 converts the felt to a uint64, failing if the value doesn't fit.
func (f Felt) ToU64() (uint64, error) {
	b := f.ToBigInt()
	if !b.IsUint64() {
		return 0, errors.New("felt: value does not fit in a u64")
	}
	return b.Uint64(), nil
}

// ToU128 converts the felt to a uint128 represented as (hi, lo), failing
// if the value doesn't fit in 128 bits.
func (f Felt) ToU128() (hi, lo uint64, err error) {
	b := f.ToBigInt()
	if b.BitLen() > 128 {
		return 0, 0, errors.New("felt: value does not fit in a u128")
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	lo = new(big.Int).And(b, mask).Uint64()
	hi = new(big.Int).Rsh(b, 64).Uint64()
	return hi, lo, nil
}

// NumBits returns the bit length of the canonical representative.
func (f Felt) NumBits() uint {
	return uint(f.ToBigInt().BitLen())
}

// IsZero reports whether f is the additive identity.
func (f Felt) IsZero() bool { return f.inner.IsZero() }

// Equal reports whether f and other represent the same residue.
func (f Felt) Equal(other Felt) bool { return f.inner.Equal(&other.inner) }

// Add returns f + other.
func (f Felt) Add(other Felt) Felt {
	var r fp.Element
	r.Add(&f.inner, &other.inner)
	return Felt{r}
}

// Sub returns f - other.
func (f Felt) Sub(other Felt) Felt {
	var r fp.Element
	r.Sub(&f.inner, &other.inner)
	return Felt{r}
}

// Mul returns f * other.
func (f Felt) Mul(other Felt) Felt {
	var r fp.Element
	r.Mul(&f.inner, &other.inner)
	return Felt{r}
}

// Neg returns -f.
func (f Felt) Neg() Felt {
	var r fp.Element
	r.Neg(&f.inner)
	return Felt{r}
}

// Inverse returns 1/f, failing with DivisionByZero if f is zero.
func (f Felt) Inverse() (Felt, error) {
	if f.IsZero() {
		return Felt{}, ErrDivisionByZero
	}
	var r fp.Element
	r.Inverse(&f.inner)
	return Felt{r}, nil
}

// Div returns f / other using field inversion. The teacher's lambdaworks
// binding exposed a saturating Div that returns zero-ish garbage on
// division by zero instead of erroring; callers in this repo that need
// the error should use Inverse directly.
func (f Felt) Div(other Felt) Felt {
	inv, err := other.Inverse()
	if err != nil {
		return Zero()
	}
	return f.Mul(inv)
}

// Pow returns f raised to the exponent (interpreted as a non-negative
// big integer).
func (f Felt) Pow(exp Felt) Felt {
	var r fp.Element
	r.Exp(f.inner, exp.ToBigInt())
	return Felt{r}
}

// Legendre returns 1 if f is a nonzero quadratic residue, -1 if it is a
// nonresidue, and 0 if f is zero.
func (f Felt) Legendre() int {
	return f.inner.Legendre()
}

// Shl returns f shifted left by n bits, saturating at zero on overflow
// past the field's bit width (the field modulus has 252 bits).
func (f Felt) Shl(n uint) Felt {
	b := f.ToBigInt()
	b.Lsh(b, n)
	if b.BitLen() > 252 {
		return Zero()
	}
	return FromBigInt(b)
}

// Shr returns f shifted right by n bits.
func (f Felt) Shr(n uint) Felt {
	b := f.ToBigInt()
	b.Rsh(b, n)
	return FromBigInt(b)
}

// And returns the bitwise AND of the canonical representatives.
func (f Felt) And(other Felt) Felt {
	return bitOp(f, other, (*big.Int).And)
}

// Or returns the bitwise OR of the canonical representatives.
func (f Felt) Or(other Felt) Felt {
	return bitOp(f, other, (*big.Int).Or)
}

// Xor returns the bitwise XOR of the canonical representatives.
func (f Felt) Xor(other Felt) Felt {
	return bitOp(f, other, (*big.Int).Xor)
}

func bitOp(a, b Felt, op func(z, x, y *big.Int) *big.Int) Felt {
	r := new(big.Int)
	op(r, a.ToBigInt(), b.ToBigInt())
	return FromBigInt(r)
}

// String renders the decimal representation, matching fmt's default for
// other numeric-ish types in this codebase.
func (f Felt) String() string {
	return f.ToBigInt().String()
}

// ErrDivisionByZero is returned by Inverse (and therefore any caller
// chaining through it) when dividing by the zero element.
var ErrDivisionByZero = errors.New("felt: division by zero")
