package interp

import (
	"math/big"
	"math/bits"
)

// bitsMulHighUU returns the high 64 bits of an unsigned 64x64->128 bit
// multiply.
func bitsMulHighUU(a, b uint64) (hi, lo uint64) {
	hi, lo = bits.Mul64(a, b)
	return hi, lo
}

// bitsMulHigh returns the high 64 bits of a signed 64x64->128 bit
// multiply (RISC-V MULH), via math/big since Go has no signed 128-bit
// multiply intrinsic.
func bitsMulHigh(a, b int64) (hi, lo uint64) {
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return split128(prod)
}

// bitsMulHighSU returns the high 64 bits of a*b where a is signed and
// b is unsigned (RISC-V MULHSU).
func bitsMulHighSU(a int64, b uint64) (hi, lo uint64) {
	prod := new(big.Int).Mul(big.NewInt(a), new(big.Int).SetUint64(b))
	return split128(prod)
}

// split128 extracts the low/high 64-bit halves of a (possibly
// negative) big.Int's two's-complement 128-bit representation.
func split128(v *big.Int) (hi, lo uint64) {
	var bi big.Int
	if v.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		bi.Add(v, mod)
	} else {
		bi.Set(v)
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	loBig := new(big.Int).And(&bi, mask)
	hiBig := new(big.Int).Rsh(&bi, 64)
	return hiBig.Uint64(), loBig.Uint64()
}
