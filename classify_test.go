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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primaryHeader(bitpix, naxis1, naxis2 int64) *Header {
	h := NewHeader()
	h.Append(Record{Kind: KeywordRecord, Name: "SIMPLE", Value: LogicalValue(true)})
	h.Append(Record{Kind: KeywordRecord, Name: "BITPIX", Value: IntegerValue(bitpix)})
	naxis := int64(0)
	if naxis1 > 0 {
		naxis = 1
	}
	if naxis2 > 0 {
		naxis = 2
	}
	h.Append(Record{Kind: KeywordRecord, Name: "NAXIS", Value: IntegerValue(naxis)})
	if naxis >= 1 {
		h.Append(Record{Kind: KeywordRecord, Name: "NAXIS1", Value: IntegerValue(naxis1)})
	}
	if naxis >= 2 {
		h.Append(Record{Kind: KeywordRecord, Name: "NAXIS2", Value: IntegerValue(naxis2)})
	}
	return h
}

func TestClassifyPrimaryNoData(t *testing.T) {
	h := primaryHeader(8, 0, 0)
	kind, err := Classify(h, 0, true)
	require.NoError(t, err)
	assert.Equal(t, KindImage, kind.Tag)
	assert.Equal(t, int64(0), kind.PayloadByteSize())
}

func TestClassifyMissingSimple(t *testing.T) {
	h := NewHeader()
	h.Append(Record{Kind: KeywordRecord, Name: "BITPIX", Value: IntegerValue(8)})
	h.Append(Record{Kind: KeywordRecord, Name: "NAXIS", Value: IntegerValue(0)})
	_, err := Classify(h, 0, true)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotAFitsFile))
}

func TestClassifyUnsupportedBitpix(t *testing.T) {
	h := primaryHeader(12, 0, 0)
	_, err := Classify(h, 0, true)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnsupportedBitpix))
}

func TestClassifyExtensionKinds(t *testing.T) {
	for _, tc := range []struct {
		xtension string
		want     HduKindTag
	}{
		{"IMAGE", KindImage},
		{"TABLE", KindAsciiTable},
		{"BINTABLE", KindBinaryTable},
		{"FOOBAR", KindOther},
	} {
		h := NewHeader()
		h.Append(Record{Kind: KeywordRecord, Name: "XTENSION", Value: StringValue(tc.xtension)})
		h.Append(Record{Kind: KeywordRecord, Name: "BITPIX", Value: IntegerValue(8)})
		h.Append(Record{Kind: KeywordRecord, Name: "NAXIS", Value: IntegerValue(0)})
		kind, err := Classify(h, 1, false)
		require.NoError(t, err)
		assert.Equal(t, tc.want, kind.Tag)
	}
}

func TestClassifyRandomGroupsUnsupported(t *testing.T) {
	h := primaryHeader(8, 10, 0)
	h.Append(Record{Kind: KeywordRecord, Name: "PCOUNT", Value: IntegerValue(3)})
	h.Append(Record{Kind: KeywordRecord, Name: "GCOUNT", Value: IntegerValue(2)})
	_, err := Classify(h, 0, true)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnsupportedExtension))
}

func TestPayloadByteSize(t *testing.T) {
	h := primaryHeader(16, 270, 263)
	kind, err := Classify(h, 0, true)
	require.NoError(t, err)
	assert.Equal(t, int64(270*263*2), kind.PayloadByteSize())
}
