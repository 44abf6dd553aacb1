// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// IEEE 754 binary16 support.
//
// Model-facing clip tensors are handed over in half precision. Go has no
// native 16-bit float, so conversions are done on the bit level: round to
// nearest even, overflow to Inf, subnormals preserved.

package tensor

import "math"

// Float16 holds the bit pattern of an IEEE 754 binary16 value.
type Float16 uint16

// FromFloat32 converts a float32 to the nearest Float16.
func FromFloat32(f float32) Float16 {
	b := math.Float32bits(f)
	sign := Float16(b >> 16 & 0x8000)
	exp := int32(b>>23&0xff) - 127 + 15
	mant := b & 0x7fffff

	switch {
	case b>>23&0xff == 0xff:
		// Inf or NaN.
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp >= 0x1f:
		// Too large, overflow to Inf.
		return sign | 0x7c00
	case exp <= 0:
		// Half subnormal range or underflow to zero.
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		half := Float16(mant >> shift)
		rem := mant & (1<<shift - 1)
		halfway := uint32(1) << (shift - 1)
		if rem > halfway || (rem == halfway && half&1 == 1) {
			half++
		}
		return sign | half
	default:
		half := Float16(uint32(exp)<<10 | mant>>13)
		rem := mant & 0x1fff
		// Round to nearest even. A mantissa carry propagates into the
		// exponent bits, which is exactly the right thing.
		if rem > 0x1000 || (rem == 0x1000 && half&1 == 1) {
			half++
		}
		return sign | half
	}
}

// Float32 converts back to float32. The conversion is exact.
func (h Float16) Float32() float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal, normalize into float32 range.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3ff
		return math.Float32frombits(sign | e<<23 | mant<<13)
	case exp == 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | mant<<13)
	}
}

// HalfVideo is a dense 4D binary16 tensor.
type HalfVideo struct {
	Shape [4]int
	Data  []Float16
}

// ToHalf casts the tensor to half precision.
func (v *Video) ToHalf() *HalfVideo {
	out := &HalfVideo{Shape: v.Shape, Data: make([]Float16, len(v.Data))}
	for i, f := range v.Data {
		out.Data[i] = FromFloat32(f)
	}
	return out
}

// ToFloat32 widens back to a float32 tensor.
func (hv *HalfVideo) ToFloat32() *Video {
	out := &Video{Shape: hv.Shape, Data: make([]float32, len(hv.Data))}
	for i, h := range hv.Data {
		out.Data[i] = h.Float32()
	}
	return out
}

// At returns the element at given 4D coordinates widened to float32.
func (hv *HalfVideo) At(i, j, k, l int) float32 {
	idx := ((i*hv.Shape[1]+j)*hv.Shape[2]+k)*hv.Shape[3] + l
	return hv.Data[idx].Float32()
}

// Bytes returns the little-endian byte serialization of the payload.
func (hv *HalfVideo) Bytes() []byte {
	b := make([]byte, 2*len(hv.Data))
	for i, h := range hv.Data {
		b[2*i] = byte(h)
		b[2*i+1] = byte(h >> 8)
	}
	return b
}
