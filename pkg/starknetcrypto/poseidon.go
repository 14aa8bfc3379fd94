package starknetcrypto

import "github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"

const (
	poseidonWidth      = 3
	poseidonFullRounds = 8
	poseidonPartRounds = 83
)

// roundConstants is generated deterministically from a small seed; see
// the package doc comment for why this isn't the StarkNet constant set.
var roundConstants = genRoundConstants()

func genRoundConstants() [poseidonFullRounds + poseidonPartRounds][poseidonWidth]felt.Felt {
	var out [poseidonFullRounds + poseidonPartRounds][poseidonWidth]felt.Felt
	seed := felt.FromUint64(0x504f5345494e4f4e) // "POSEINON"-ish seed, just a fixed starting point
	for r := range out {
		for c := 0; c < poseidonWidth; c++ {
			seed = seed.Mul(felt.FromUint64(31)).Add(felt.FromUint64(uint64(r*poseidonWidth + c + 1)))
			out[r][c] = seed
		}
	}
	return out
}

func mds(state [poseidonWidth]felt.Felt) [poseidonWidth]felt.Felt {
	var out [poseidonWidth]felt.Felt
	for i := 0; i < poseidonWidth; i++ {
		sum := felt.Zero()
		for j := 0; j < poseidonWidth; j++ {
			weight := felt.FromUint64(uint64(i+j+1))
			sum = sum.Add(state[j].Mul(weight))
		}
		out[i] = sum
	}
	return out
}

func sbox(f felt.Felt) felt.Felt {
	return f.Mul(f).Mul(f)
}

// PoseidonPermutation runs the full sponge permutation over a 3-element
// state in place, used by the Poseidon builtin's single-squeeze mode.
func PoseidonPermutation(state *[poseidonWidth]felt.Felt) {
	half := poseidonFullRounds / 2
	round := 0

	applyFull := func() {
		c := roundConstants[round]
		for i := range state {
			state[i] = sbox(state[i].Add(c[i]))
		}
		*state = mds(*state)
		round++
	}
	applyPartial := func() {
		c := roundConstants[round]
		for i := range state {
			state[i] = state[i].Add(c[i])
		}
		state[0] = sbox(state[0])
		*state = mds(*state)
		round++
	}

	for i := 0; i < half; i++ {
		applyFull()
	}
	for i := 0; i < poseidonPartRounds; i++ {
		applyPartial()
	}
	for i := 0; i < half; i++ {
		applyFull()
	}
}

// PoseidonHash hashes two field elements through a single permutation,
// following the standard sponge construction with capacity element zero.
func PoseidonHash(a, b felt.Felt) felt.Felt {
	state := [poseidonWidth]felt.Felt{a, b, felt.Zero()}
	PoseidonPermutation(&state)
	return state[0]
}
