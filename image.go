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
	"fmt"

	"github.com/gpu-ninja/fits/array"
)

// ElementKind discriminates the closed set of element types an image
// payload can be materialized as, mirroring the BITPIX/BZERO/BSCALE
// combinations a FITS reader is obligated to recognize (FITS 4.0 §4.4.1.1
// and the unsigned-integer convention in Appendix B).
type ElementKind int

const (
	ElementU8 ElementKind = iota
	ElementI16
	ElementU16
	ElementI32
	ElementU32
	ElementI64
	ElementF32
	ElementF64
)

// ImageArray is the tagged union over the N-D arrays this module can
// produce. Exactly one field is non-nil, selected by Kind. A closed,
// finite set of element types is better modeled as an explicit tagged
// struct than as values satisfying an open interface.
type ImageArray struct {
	Kind ElementKind
	U8   *array.Array[uint8]
	I16  *array.Array[int16]
	U16  *array.Array[uint16]
	I32  *array.Array[int32]
	U32  *array.Array[uint32]
	I64  *array.Array[int64]
	F32  *array.Array[float32]
	F64  *array.Array[float64]
}

// Payload is the tagged union over everything an HDU's data unit can
// decode to. Table and unrecognized extensions are kept as raw bytes: this
// module classifies them but does not interpret their row/column layout
// (spec.md data flow note: "ImageCodec (or stub for other kinds)").
type Payload struct {
	IsImage bool
	Image   ImageArray
	Raw     []byte
}

// AsImage returns the decoded image array, or a WrongValueKind error if the
// payload is not an image (e.g. a table extension kept only in raw form).
func (p Payload) AsImage() (ImageArray, error) {
	if !p.IsImage {
		return ImageArray{}, newErr(KindWrongValueKind, fmt.Errorf("payload is not an image"))
	}
	return p.Image, nil
}

// AsU8Array returns the array.Array[uint8] view, or a WrongValueKind error
// if the image was decoded to a different element kind.
func (img ImageArray) AsU8Array() (*array.Array[uint8], error) {
	if img.Kind != ElementU8 {
		return nil, wrongElementKind(ElementU8, img.Kind)
	}
	return img.U8, nil
}

// AsI16Array returns the array.Array[int16] view, or a WrongValueKind error
// if the image was decoded to a different element kind.
func (img ImageArray) AsI16Array() (*array.Array[int16], error) {
	if img.Kind != ElementI16 {
		return nil, wrongElementKind(ElementI16, img.Kind)
	}
	return img.I16, nil
}

// AsU16Array returns the array.Array[uint16] view, or a WrongValueKind error
// if the image was decoded to a different element kind.
func (img ImageArray) AsU16Array() (*array.Array[uint16], error) {
	if img.Kind != ElementU16 {
		return nil, wrongElementKind(ElementU16, img.Kind)
	}
	return img.U16, nil
}

// AsI32Array returns the array.Array[int32] view, or a WrongValueKind error
// if the image was decoded to a different element kind.
func (img ImageArray) AsI32Array() (*array.Array[int32], error) {
	if img.Kind != ElementI32 {
		return nil, wrongElementKind(ElementI32, img.Kind)
	}
	return img.I32, nil
}

// AsU32Array returns the array.Array[uint32] view, or a WrongValueKind error
// if the image was decoded to a different element kind.
func (img ImageArray) AsU32Array() (*array.Array[uint32], error) {
	if img.Kind != ElementU32 {
		return nil, wrongElementKind(ElementU32, img.Kind)
	}
	return img.U32, nil
}

// AsI64Array returns the array.Array[int64] view, or a WrongValueKind error
// if the image was decoded to a different element kind.
func (img ImageArray) AsI64Array() (*array.Array[int64], error) {
	if img.Kind != ElementI64 {
		return nil, wrongElementKind(ElementI64, img.Kind)
	}
	return img.I64, nil
}

// AsF32Array returns the array.Array[float32] view, or a WrongValueKind
// error if the image was decoded to a different element kind.
func (img ImageArray) AsF32Array() (*array.Array[float32], error) {
	if img.Kind != ElementF32 {
		return nil, wrongElementKind(ElementF32, img.Kind)
	}
	return img.F32, nil
}

// AsF64Array returns the array.Array[float64] view, or a WrongValueKind
// error if the image was decoded to a different element kind.
func (img ImageArray) AsF64Array() (*array.Array[float64], error) {
	if img.Kind != ElementF64 {
		return nil, wrongElementKind(ElementF64, img.Kind)
	}
	return img.F64, nil
}

func wrongElementKind(want, got ElementKind) error {
	return newErr(KindWrongValueKind, fmt.Errorf("element kind is %d, not %d", got, want))
}

// reverseAxes converts a FITS NAXIS list (axis 1 varies fastest on disk)
// into the row-major shape used by array.Array, where the LAST dimension
// varies fastest (spec.md §4.5 step 2).
func reverseAxes(naxis []int64) []int64 {
	out := make([]int64, len(naxis))
	for i, v := range naxis {
		out[len(naxis)-1-i] = v
	}
	return out
}

// DecodeImage reads raw, already block-padding-stripped payload bytes and
// produces a typed, rescaled ImageArray per the BITPIX/BZERO/BSCALE
// conventions in FITS 4.0 §4.4.1.1 and §4.4.2.5.
func DecodeImage(raw []byte, h *Header, k HduKind) (ImageArray, error) {
	bzero, bscale, err := readScale(h)
	if err != nil {
		return ImageArray{}, err
	}

	n := k.PayloadElemCount()
	shape := reverseAxes(k.Naxis)

	switch k.Bitpix {
	case 8:
		raw8 := decodeU8(raw, n)
		return scaleU8(raw8, shape, bzero, bscale)
	case 16:
		raw16 := decodeI16(raw, n)
		return scaleI16(raw16, shape, bzero, bscale)
	case 32:
		raw32 := decodeI32(raw, n)
		return scaleI32(raw32, shape, bzero, bscale)
	case 64:
		raw64 := decodeI64(raw, n)
		return scaleI64(raw64, shape, bzero, bscale)
	case -32:
		rawf32 := decodeF32(raw, n)
		return scaleF32(rawf32, shape, bzero, bscale)
	case -64:
		rawf64 := decodeF64(raw, n)
		return scaleF64(rawf64, shape, bzero, bscale)
	default:
		return ImageArray{}, newErr(KindUnsupportedBitpix, fmt.Errorf("bitpix %d is not supported", k.Bitpix))
	}
}

// EncodeImage converts a typed ImageArray back into raw big-endian bytes
// matching the header's BITPIX, applying the inverse of the BZERO/BSCALE
// rescale used at decode time. Fails with UnsupportedConversion if img's
// element kind is not the one DecodeImage would have produced for this
// header's BITPIX/BZERO/BSCALE, since encoding it would silently contradict
// the payload size and scaling the header declares (spec.md §4.5 Encode).
func EncodeImage(img ImageArray, h *Header) ([]byte, error) {
	bzero, bscale, err := readScale(h)
	if err != nil {
		return nil, err
	}

	bitpix, err := h.AsInteger("BITPIX")
	if err != nil {
		return nil, err
	}
	if !isSupportedBitpix(bitpix) {
		return nil, newErr(KindUnsupportedBitpix, fmt.Errorf("bitpix %d is not supported", bitpix))
	}

	want := expectedElementKind(bitpix, bzero, bscale)
	if img.Kind != want {
		return nil, newErr(KindUnsupportedConversion, fmt.Errorf(
			"element kind %d cannot be encoded at bitpix %d with bzero=%v bscale=%v (expected kind %d)",
			img.Kind, bitpix, bzero, bscale, want))
	}

	switch img.Kind {
	case ElementU8:
		return encodeU8(img.U8.Data()), nil
	case ElementI16:
		return encodeI16(img.I16.Data()), nil
	case ElementU16:
		return encodeI16(unscaleU16(img.U16.Data(), bzero, bscale)), nil
	case ElementI32:
		return encodeI32(img.I32.Data()), nil
	case ElementU32:
		return encodeI32(unscaleU32(img.U32.Data(), bzero, bscale)), nil
	case ElementI64:
		return encodeI64(img.I64.Data()), nil
	case ElementF32:
		return encodeF32(img.F32.Data()), nil
	case ElementF64:
		return encodeF64(img.F64.Data()), nil
	default:
		return nil, newErr(KindInvariantViolation, fmt.Errorf("unknown element kind %d", img.Kind))
	}
}

// expectedElementKind reports the single ElementKind DecodeImage produces
// for a given bitpix/bzero/bscale combination, mirroring the scale*
// functions in image_scale.go exactly. EncodeImage uses it to reject a
// caller-supplied array whose kind does not match what the header declares.
func expectedElementKind(bitpix int64, bzero, bscale float64) ElementKind {
	integralScale := isIntegral(bzero) && isIntegral(bscale)
	switch bitpix {
	case 8:
		if isIdentityScale(bzero, bscale) {
			return ElementU8
		}
	case 16:
		if isIdentityScale(bzero, bscale) {
			return ElementI16
		}
		if isUnsignedShift16(bzero, bscale) {
			return ElementU16
		}
	case 32:
		if isIdentityScale(bzero, bscale) {
			return ElementI32
		}
		if isUnsignedShift32(bzero, bscale) {
			return ElementU32
		}
	case 64:
		if isIdentityScale(bzero, bscale) {
			return ElementI64
		}
		return ElementF64
	case -32:
		if integralScale {
			return ElementF32
		}
		return ElementF64
	case -64:
		return ElementF64
	}
	if integralScale {
		return ElementF32
	}
	return ElementF64
}

// readScale returns BZERO/BSCALE, defaulting to the FITS-mandated identity
// values (0.0, 1.0) when either keyword is absent.
func readScale(h *Header) (bzero, bscale float64, err error) {
	bzero = 0.0
	bscale = 1.0
	if h.Has("BZERO") {
		bzero, err = h.AsReal("BZERO")
		if err != nil {
			return 0, 0, err
		}
	}
	if h.Has("BSCALE") {
		bscale, err = h.AsReal("BSCALE")
		if err != nil {
			return 0, 0, err
		}
	}
	return bzero, bscale, nil
}
