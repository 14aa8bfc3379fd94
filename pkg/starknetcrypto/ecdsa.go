package starknetcrypto

import (
	"math/big"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// order is the curve's group order, used to reduce ECDSA scalars; it
// uses the real StarkNet curve order.
var order, _ = new(big.Int).SetString("800000000000010ffffffffffffffffb781126dcae7b2321e66a241adc64d2f", 16)

// Generator is the curve's base point, derived the same way the
// Pedersen shift points are (see the package doc comment).
var Generator = mustGenPoint(7)

// Signature is an ECDSA signature over the STARK curve.
type Signature struct {
	R felt.Felt
	S felt.Felt
}

// VerifyECDSA checks sig against msgHash and the given public key's
// affine x-coordinate, per the builtin's verification rule.
func VerifyECDSA(msgHash felt.Felt, pubKeyX felt.Felt, sig Signature) (bool, error) {
	pubKey, err := recoverPoint(pubKeyX)
	if err != nil {
		return false, err
	}

	sInv := new(big.Int).ModInverse(sig.S.ToBigInt(), order)
	if sInv == nil {
		return false, nil
	}

	u1 := new(big.Int).Mul(msgHash.ToBigInt(), sInv)
	u1.Mod(u1, order)
	u2 := new(big.Int).Mul(sig.R.ToBigInt(), sInv)
	u2.Mod(u2, order)

	p1, err := ScalarMul(felt.FromBigInt(u1), Generator)
	if err != nil {
		return false, err
	}
	p2, err := ScalarMul(felt.FromBigInt(u2), pubKey)
	if err != nil {
		return false, err
	}
	sum, err := Add(p1, p2)
	if err != nil {
		return false, err
	}

	return sum.X.Equal(sig.R), nil
}

// recoverPoint reconstructs the affine point with the given x
// coordinate, choosing the root whose y-coordinate is even, matching
// the convention StarkNet public keys are encoded with.
func recoverPoint(x felt.Felt) (Point, error) {
	y2 := x.Mul(x).Mul(x).Add(Alpha.Mul(x)).Add(Beta)
	y, ok := sqrtFelt(y2)
	if !ok {
		return Point{}, vmerrors.ErrPointNotOnCurve
	}
	if y.ToBigInt().Bit(0) == 1 {
		y = y.Neg()
	}
	return Point{X: x, Y: y}, nil
}
