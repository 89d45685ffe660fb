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
	"encoding/binary"
	"math"
)

// bitpixElemWidth returns the byte width of a single element for the given
// BITPIX value (FITS 4.0 §4.4.1.1): the width is the absolute value divided
// by 8, regardless of signedness.
func bitpixElemWidth(bitpix int64) int64 {
	if bitpix < 0 {
		bitpix = -bitpix
	}
	return bitpix / 8
}

func isSupportedBitpix(bitpix int64) bool {
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
		return true
	}
	return false
}

func isIntegral(v float64) bool {
	return v == float64(int64(v))
}

// decodeU8 copies a raw byte slice into a uint8 slice; bitpix=8 is always
// byte-width, so no swapping is ever needed.
func decodeU8(raw []byte, n int64) []uint8 {
	out := make([]uint8, n)
	copy(out, raw)
	return out
}

func encodeU8(data []uint8) []byte {
	return append([]byte(nil), data...)
}

// decodeI16 interprets raw as n big-endian int16 elements. Byte order
// conversion is mandatory on little-endian hosts; encoding/binary's
// BigEndian accessors already do the right thing on any host, so no
// separate host-endianness check is needed (spec.md §9 design note).
func decodeI16(raw []byte, n int64) []int16 {
	out := make([]int16, n)
	for i := int64(0); i < n; i++ {
		out[i] = int16(binary.BigEndian.Uint16(raw[i*2:]))
	}
	return out
}

func encodeI16(data []int16) []byte {
	out := make([]byte, len(data)*2)
	for i, v := range data {
		binary.BigEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func decodeI32(raw []byte, n int64) []int32 {
	out := make([]int32, n)
	for i := int64(0); i < n; i++ {
		out[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
	}
	return out
}

func encodeI32(data []int32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.BigEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

func decodeI64(raw []byte, n int64) []int64 {
	out := make([]int64, n)
	for i := int64(0); i < n; i++ {
		out[i] = int64(binary.BigEndian.Uint64(raw[i*8:]))
	}
	return out
}

func encodeI64(data []int64) []byte {
	out := make([]byte, len(data)*8)
	for i, v := range data {
		binary.BigEndian.PutUint64(out[i*8:], uint64(v))
	}
	return out
}

func decodeF32(raw []byte, n int64) []float32 {
	out := make([]float32, n)
	for i := int64(0); i < n; i++ {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:]))
	}
	return out
}

func encodeF32(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeF64(raw []byte, n int64) []float64 {
	out := make([]float64, n)
	for i := int64(0); i < n; i++ {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
	}
	return out
}

func encodeF64(data []float64) []byte {
	out := make([]byte, len(data)*8)
	for i, v := range data {
		binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}
