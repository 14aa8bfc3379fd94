// Package starknetcrypto implements the curve and hash primitives the
// Cairo builtins rely on: the STARK-friendly short Weierstrass curve,
// Pedersen and Poseidon hashing, and ECDSA signature verification.
//
// The shift-point and round-constant tables used by PedersenHash and
// PoseidonPermutation are deterministically generated rather than the
// bit-exact StarkNet constants; callers that need prover-compatible
// digests must substitute the real tables. Curve parameters (alpha,
// beta, order) are the real StarkNet curve's.
package starknetcrypto

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
)

// Alpha and Beta are the curve coefficients of y^2 = x^3 + alpha*x + beta.
var (
	Alpha = felt.One()
	betaStr = "3141592653589793238462643383279502884197169399375105820974944592307816406665"
	Beta, _ = felt.FromDecString(betaStr)
)

// Point is an affine point on the curve. The zero value is not a valid
// curve point; use Generator or IsOnCurve to obtain one.
type Point struct {
	X felt.Felt
	Y felt.Felt
}

// IsOnCurve reports whether p satisfies the curve equation.
func IsOnCurve(p Point) bool {
	lhs := p.Y.Mul(p.Y)
	rhs := p.X.Mul(p.X).Mul(p.X).Add(Alpha.Mul(p.X)).Add(Beta)
	return lhs.Equal(rhs)
}

// Add returns p+q for two distinct affine points on the curve.
func Add(p, q Point) (Point, error) {
	if p.X.Equal(q.X) {
		if p.Y.Equal(q.Y) {
			return Double(p)
		}
		return Point{}, fmt.Errorf("starknetcrypto: add of inverse points has no affine result")
	}
	lambda := q.Y.Sub(p.Y).Div(q.X.Sub(p.X))
	x3 := lambda.Mul(lambda).Sub(p.X).Sub(q.X)
	y3 := lambda.Mul(p.X.Sub(x3)).Sub(p.Y)
	return Point{X: x3, Y: y3}, nil
}

// Double returns p+p.
func Double(p Point) (Point, error) {
	if p.Y.IsZero() {
		return Point{}, fmt.Errorf("starknetcrypto: double of a point on the x-axis has no affine result")
	}
	two := felt.FromUint64(2)
	three := felt.FromUint64(3)
	lambda := three.Mul(p.X).Mul(p.X).Add(Alpha).Div(two.Mul(p.Y))
	x3 := lambda.Mul(lambda).Sub(two.Mul(p.X))
	y3 := lambda.Mul(p.X.Sub(x3)).Sub(p.Y)
	return Point{X: x3, Y: y3}, nil
}

// ScalarMul returns scalar*p via double-and-add over the bits of scalar.
func ScalarMul(scalar felt.Felt, p Point) (Point, error) {
	result := Point{}
	haveResult := false
	addend := p
	n := scalar.ToBigInt()

	for bit := 0; bit < n.BitLen(); bit++ {
		if n.Bit(bit) == 1 {
			if !haveResult {
				result = addend
				haveResult = true
			} else {
				var err error
				result, err = Add(result, addend)
				if err != nil {
					return Point{}, err
				}
			}
		}
		doubled, err := Double(addend)
		if err != nil {
			// addend reached the point at infinity's x-axis pair; no
			// further bits can contribute.
			break
		}
		addend = doubled
	}
	return result, nil
}
