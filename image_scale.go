/* SPDX-License-Identifier: Apache-2.0
 *
 * Copyright 2023 Damian Peckett <damian@peckett>.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fits

import (
	"github.com/gpu-ninja/fits/array"
)

// The unsigned-integer shift convention (FITS 4.0 Appendix B): a signed
// on-disk integer combined with exactly this BZERO/BSCALE pair represents
// an unsigned value of the same width. Any other non-identity BZERO/BSCALE
// combination is a general linear rescale, promoted to the raw type's
// natural float width when both scale constants are integral, or to
// float64 when either is not (FITS 4.0 §4.4.1.1 / spec rescale rule 3).
const (
	unsignedShift16 = 32768
	unsignedShift32 = 2147483648
)

func isIdentityScale(bzero, bscale float64) bool {
	return bzero == 0 && bscale == 1
}

func isUnsignedShift16(bzero, bscale float64) bool {
	return bzero == unsignedShift16 && bscale == 1
}

func isUnsignedShift32(bzero, bscale float64) bool {
	return bzero == unsignedShift32 && bscale == 1
}

func scaleU8(raw []uint8, shape []int64, bzero, bscale float64) (ImageArray, error) {
	if isIdentityScale(bzero, bscale) {
		a, err := array.New(raw, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementU8, U8: a}, nil
	}
	if isIntegral(bzero) && isIntegral(bscale) {
		return promoteToF32(toFloat64(raw), shape, bzero, bscale)
	}
	return promoteToF64(toFloat64(raw), shape, bzero, bscale)
}

func scaleI16(raw []int16, shape []int64, bzero, bscale float64) (ImageArray, error) {
	switch {
	case isIdentityScale(bzero, bscale):
		a, err := array.New(raw, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementI16, I16: a}, nil
	case isUnsignedShift16(bzero, bscale):
		out := make([]uint16, len(raw))
		for i, v := range raw {
			out[i] = uint16(v) + unsignedShift16
		}
		a, err := array.New(out, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementU16, U16: a}, nil
	case isIntegral(bzero) && isIntegral(bscale):
		return promoteToF32(toFloat64(raw), shape, bzero, bscale)
	default:
		return promoteToF64(toFloat64(raw), shape, bzero, bscale)
	}
}

func scaleI32(raw []int32, shape []int64, bzero, bscale float64) (ImageArray, error) {
	switch {
	case isIdentityScale(bzero, bscale):
		a, err := array.New(raw, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementI32, I32: a}, nil
	case isUnsignedShift32(bzero, bscale):
		out := make([]uint32, len(raw))
		for i, v := range raw {
			out[i] = uint32(v) + unsignedShift32
		}
		a, err := array.New(out, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementU32, U32: a}, nil
	case isIntegral(bzero) && isIntegral(bscale):
		return promoteToF32(toFloat64(raw), shape, bzero, bscale)
	default:
		return promoteToF64(toFloat64(raw), shape, bzero, bscale)
	}
}

// scaleI64 has no integral-scale branch distinct from the general case: the
// raw type's natural float is already float64 at this width, so an
// integral and a non-integral BZERO/BSCALE both promote to the same kind.
func scaleI64(raw []int64, shape []int64, bzero, bscale float64) (ImageArray, error) {
	if isIdentityScale(bzero, bscale) {
		a, err := array.New(raw, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementI64, I64: a}, nil
	}
	return promoteToF64(toFloat64(raw), shape, bzero, bscale)
}

func scaleF32(raw []float32, shape []int64, bzero, bscale float64) (ImageArray, error) {
	if isIdentityScale(bzero, bscale) {
		a, err := array.New(raw, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementF32, F32: a}, nil
	}
	widened := make([]float64, len(raw))
	for i, v := range raw {
		widened[i] = float64(v)
	}
	if isIntegral(bzero) && isIntegral(bscale) {
		return promoteToF32(widened, shape, bzero, bscale)
	}
	return promoteToF64(widened, shape, bzero, bscale)
}

func scaleF64(raw []float64, shape []int64, bzero, bscale float64) (ImageArray, error) {
	if isIdentityScale(bzero, bscale) {
		a, err := array.New(raw, shape)
		if err != nil {
			return ImageArray{}, newErr(KindInvariantViolation, err)
		}
		return ImageArray{Kind: ElementF64, F64: a}, nil
	}
	return promoteToF64(raw, shape, bzero, bscale)
}

// promoteToF32 applies physical = bzero + bscale*raw elementwise, producing
// a float32 result. Used only when both scale constants are integral. The
// rescale is computed in float64 and then narrowed, so physical values whose
// magnitude exceeds 2^24 are rounded to the nearest float32.
func promoteToF32(raw []float64, shape []int64, bzero, bscale float64) (ImageArray, error) {
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(bzero + bscale*v)
	}
	a, err := array.New(out, shape)
	if err != nil {
		return ImageArray{}, newErr(KindInvariantViolation, err)
	}
	return ImageArray{Kind: ElementF32, F32: a}, nil
}

// promoteToF64 applies physical = bzero + bscale*raw elementwise; used
// whenever BZERO/BSCALE describe a general linear rescale rather than the
// identity or unsigned-shift special cases.
func promoteToF64(raw []float64, shape []int64, bzero, bscale float64) (ImageArray, error) {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = bzero + bscale*v
	}
	a, err := array.New(out, shape)
	if err != nil {
		return ImageArray{}, newErr(KindInvariantViolation, err)
	}
	return ImageArray{Kind: ElementF64, F64: a}, nil
}

func toFloat64[T ~uint8 | ~int16 | ~int32 | ~int64](raw []T) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

func unscaleU16(data []uint16, bzero, bscale float64) []int16 {
	out := make([]int16, len(data))
	for i, v := range data {
		out[i] = int16(v - unsignedShift16)
	}
	return out
}

func unscaleU32(data []uint32, bzero, bscale float64) []int32 {
	out := make([]int32, len(data))
	for i, v := range data {
		out[i] = int32(v - unsignedShift32)
	}
	return out
}
