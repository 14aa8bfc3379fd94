package starknetcrypto

import (
	"math/big"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
)

// shiftPoints holds the curve points PedersenHash combines with the bits
// of its two inputs: a shift point plus one low/high pair per operand.
var shiftPoints = [5]Point{
	mustGenPoint(1),
	mustGenPoint(2),
	mustGenPoint(3),
	mustGenPoint(4),
	mustGenPoint(5),
}

// mustGenPoint deterministically derives a curve point from a small seed:
// starting at x = seed it steps x up by one until x³+αx+β has a square
// root y, and returns (x, y).
func mustGenPoint(seed uint64) Point {
	x := felt.FromUint64(seed)
	for i := 0; i < 10_000; i++ {
		y2 := x.Mul(x).Mul(x).Add(Alpha.Mul(x)).Add(Beta)
		if y, ok := sqrtFelt(y2); ok {
			return Point{X: x, Y: y}
		}
		x = x.Add(felt.One())
	}
	panic("starknetcrypto: failed to derive a shift point")
}

// sqrtFelt returns a square root of v modulo P, or false when v is not a
// quadratic residue. The Stark prime is 1 mod 4, so this uses math/big's
// general ModSqrt rather than a single exponentiation.
func sqrtFelt(v felt.Felt) (felt.Felt, bool) {
	if v.IsZero() {
		return felt.Zero(), true
	}
	p := new(big.Int).Add(felt.FromInt64(-1).ToBigInt(), big.NewInt(1))
	root := new(big.Int).ModSqrt(v.ToBigInt(), p)
	if root == nil {
		return felt.Felt{}, false
	}
	return felt.FromBigInt(root), true
}

const pedersenChunkBits = 252

// PedersenHash computes the two-input Pedersen hash used by memory
// builtins and the program's identifier tree.
func PedersenHash(a, b felt.Felt) felt.Felt {
	point := shiftPoints[0]
	point = combine(point, a, shiftPoints[1], shiftPoints[2])
	point = combine(point, b, shiftPoints[3], shiftPoints[4])
	return point.X
}

// combine folds the bits of v into acc, using low for the low 248 bits
// and high for the remaining ones, mirroring the real algorithm's split
// of each 252-bit operand into a low and a high segment.
func combine(acc Point, v felt.Felt, low, high Point) Point {
	bits := v.ToBigInt()
	const lowBits = 248

	lowPower := low
	highPower := high
	for i := 0; i < pedersenChunkBits; i++ {
		base := lowPower
		if i >= lowBits {
			base = highPower
		}
		if bits.Bit(i) == 1 {
			if added, err := Add(acc, base); err == nil {
				acc = added
			}
		}
		if i < lowBits {
			if doubled, err := Double(lowPower); err == nil {
				lowPower = doubled
			}
		} else {
			if doubled, err := Double(highPower); err == nil {
				highPower = doubled
			}
		}
	}
	return acc
}
