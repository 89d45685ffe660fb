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

import "fmt"

// HduKindTag discriminates the closed set of HDU classifications. Only
// Image carries a decodable payload; AsciiTable, BinaryTable and Other are
// classified successfully but their data units are kept as raw bytes
// (FITS 4.0 §4.4, "stub for other kinds" in the read pipeline).
type HduKindTag int

const (
	KindImage HduKindTag = iota
	KindAsciiTable
	KindBinaryTable
	KindOther
)

// HduKind is the result of classifying a header: which payload shape it
// describes, plus the structural fields every payload shape needs in
// common (BITPIX, axis list, PCOUNT/GCOUNT).
type HduKind struct {
	Tag       HduKindTag
	Bitpix    int64
	Naxis     []int64 // NAXIS1..NAXISn, in FITS (fastest-first) order
	Pcount    int64
	Gcount    int64
	Extension string // XTENSION value, "" for the primary HDU
}

// Classify inspects a parsed header's structural keywords and determines
// what kind of HDU it describes. isPrimary distinguishes the mandatory
// SIMPLE-keyed first HDU from XTENSION-keyed extensions (FITS 4.0 §4.4.1 and
// §7).
func Classify(h *Header, hduIndex int, isPrimary bool) (HduKind, error) {
	bitpix, err := h.AsInteger("BITPIX")
	if err != nil {
		if fe, ok := err.(*Error); ok {
			return HduKind{}, fe.withHdu(hduIndex)
		}
		return HduKind{}, err
	}
	if !isSupportedBitpix(bitpix) {
		return HduKind{}, newErr(KindUnsupportedBitpix, fmt.Errorf("bitpix %d is not one of 8,16,32,64,-32,-64", bitpix)).withHdu(hduIndex)
	}

	naxis, err := h.AsInteger("NAXIS")
	if err != nil {
		if fe, ok := err.(*Error); ok {
			return HduKind{}, fe.withHdu(hduIndex)
		}
		return HduKind{}, err
	}
	if naxis < 0 {
		return HduKind{}, newErr(KindInvariantViolation, fmt.Errorf("NAXIS must be >= 0, got %d", naxis)).withHdu(hduIndex)
	}

	axes := make([]int64, naxis)
	for i := int64(0); i < naxis; i++ {
		name := fmt.Sprintf("NAXIS%d", i+1)
		v, err := h.AsInteger(name)
		if err != nil {
			if fe, ok := err.(*Error); ok {
				return HduKind{}, fe.withHdu(hduIndex)
			}
			return HduKind{}, err
		}
		if v < 0 {
			return HduKind{}, newErr(KindInvariantViolation, fmt.Errorf("%s must be >= 0, got %d", name, v)).withHdu(hduIndex)
		}
		axes[i] = v
	}

	pcount := int64(0)
	if h.Has("PCOUNT") {
		pcount, err = h.AsInteger("PCOUNT")
		if err != nil {
			return HduKind{}, err.(*Error).withHdu(hduIndex)
		}
	}
	gcount := int64(1)
	if h.Has("GCOUNT") {
		gcount, err = h.AsInteger("GCOUNT")
		if err != nil {
			return HduKind{}, err.(*Error).withHdu(hduIndex)
		}
	}

	if isPrimary {
		simple, ok := h.Get("SIMPLE")
		if !ok || simple.Value.Kind != ValueLogical || !simple.Value.Bool {
			return HduKind{}, newErr(KindNotAFitsFile, fmt.Errorf("missing or malformed SIMPLE keyword")).withHdu(hduIndex)
		}
		if pcount > 0 {
			return HduKind{}, newErr(KindUnsupportedExtension, fmt.Errorf("random groups records are not supported")).withHdu(hduIndex)
		}
		return HduKind{Tag: KindImage, Bitpix: bitpix, Naxis: axes, Pcount: pcount, Gcount: gcount}, nil
	}

	xtension, err := h.AsString("XTENSION")
	if err != nil {
		return HduKind{}, newErr(KindNotAFitsFile, fmt.Errorf("extension HDU missing XTENSION keyword")).withHdu(hduIndex)
	}
	switch xtension {
	case "IMAGE":
		return HduKind{Tag: KindImage, Bitpix: bitpix, Naxis: axes, Pcount: pcount, Gcount: gcount, Extension: xtension}, nil
	case "TABLE":
		return HduKind{Tag: KindAsciiTable, Bitpix: bitpix, Naxis: axes, Pcount: pcount, Gcount: gcount, Extension: xtension}, nil
	case "BINTABLE":
		return HduKind{Tag: KindBinaryTable, Bitpix: bitpix, Naxis: axes, Pcount: pcount, Gcount: gcount, Extension: xtension}, nil
	default:
		return HduKind{Tag: KindOther, Bitpix: bitpix, Naxis: axes, Pcount: pcount, Gcount: gcount, Extension: xtension}, nil
	}
}

// PayloadElemCount returns the number of primitive elements the payload
// described by k occupies: product(NAXIS1..NAXISn) times GCOUNT (GCOUNT is
// always 1 outside the unsupported random-groups convention).
func (k HduKind) PayloadElemCount() int64 {
	n := int64(1)
	for _, d := range k.Naxis {
		n *= d
	}
	if len(k.Naxis) == 0 {
		n = 0
	}
	return n * k.Gcount
}

// PayloadByteSize returns the total payload size in bytes, before block
// padding.
func (k HduKind) PayloadByteSize() int64 {
	return k.PayloadElemCount() * bitpixElemWidth(k.Bitpix)
}
