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

func bytesAt(t *testing.T, br *BlockReader, n int64) []byte {
	t.Helper()
	buf, err := br.ReadNBlocks(0, n)
	require.NoError(t, err)
	return buf
}

func newMemBlockReader(t *testing.T, data []byte) *BlockReader {
	t.Helper()
	br, err := NewBlockReader(memReaderAt(data), int64(len(data)))
	require.NoError(t, err)
	return br
}

type memReaderAt []byte

func (m memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m[off:])
	return n, nil
}

func TestHeaderAppendReplaceRemove(t *testing.T) {
	h := NewHeader()
	h.Append(Record{Kind: KeywordRecord, Name: "SIMPLE", Value: LogicalValue(true)})
	h.Append(Record{Kind: KeywordRecord, Name: "BITPIX", Value: IntegerValue(8)})

	assert.True(t, h.Has("BITPIX"))
	bitpix, err := h.AsInteger("BITPIX")
	require.NoError(t, err)
	assert.Equal(t, int64(8), bitpix)

	h.Replace("BITPIX", IntegerValue(16), "")
	bitpix, err = h.AsInteger("BITPIX")
	require.NoError(t, err)
	assert.Equal(t, int64(16), bitpix)

	h.Remove("BITPIX")
	assert.False(t, h.Has("BITPIX"))
}

func TestHeaderInsertBefore(t *testing.T) {
	h := NewHeader()
	h.Append(Record{Kind: KeywordRecord, Name: "SIMPLE", Value: LogicalValue(true)})
	h.Append(Record{Kind: KeywordRecord, Name: "NAXIS", Value: IntegerValue(0)})
	h.InsertBefore("NAXIS", Record{Kind: KeywordRecord, Name: "BITPIX", Value: IntegerValue(8)})

	names := make([]string, 0)
	for _, rec := range h.Records() {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"SIMPLE", "BITPIX", "NAXIS"}, names)
}

func TestHeaderAsStringContinuation(t *testing.T) {
	h := NewHeader()
	h.append(Record{Kind: KeywordRecord, Name: "LONGSTRN", Value: StringValue("first part that continues&")})
	h.append(Record{Kind: ContinuationRecord, Name: "CONTINUE", Text: "second part"})

	s, err := h.AsString("LONGSTRN")
	require.NoError(t, err)
	assert.Equal(t, "first part that continuessecond part", s)
}

func TestHeaderMarshalPadsToBlockBoundary(t *testing.T) {
	h := NewHeader()
	h.Append(Record{Kind: KeywordRecord, Name: "SIMPLE", Value: LogicalValue(true)})

	buf, err := h.Marshal()
	require.NoError(t, err)
	assert.Equal(t, 0, len(buf)%BlockSize)

	for _, b := range buf[len(buf)-RecordSize:] {
		if b != ' ' {
			assert.Fail(t, "trailing pad byte is not an ASCII space")
		}
	}
}

func TestReadHeaderExactlyOneBlock(t *testing.T) {
	h := NewHeader()
	h.Append(Record{Kind: KeywordRecord, Name: "SIMPLE", Value: LogicalValue(true)})
	h.Append(Record{Kind: KeywordRecord, Name: "BITPIX", Value: IntegerValue(8)})
	h.Append(Record{Kind: KeywordRecord, Name: "NAXIS", Value: IntegerValue(0)})
	for i := 0; i < recordsPerBlock-4; i++ {
		h.Append(Record{Kind: CommentaryRecord, Name: "COMMENT", Text: "filler"})
	}

	raw, err := h.Marshal()
	require.NoError(t, err)
	assert.Equal(t, BlockSize, len(raw))

	br := newMemBlockReader(t, raw)
	parsed, blocks, err := ReadHeader(br, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), blocks)

	naxis, err := parsed.AsInteger("NAXIS")
	require.NoError(t, err)
	assert.Equal(t, int64(0), naxis)
}

func TestReadHeaderTwoBlocks(t *testing.T) {
	h := NewHeader()
	h.Append(Record{Kind: KeywordRecord, Name: "SIMPLE", Value: LogicalValue(true)})
	for i := 0; i < recordsPerBlock+5; i++ {
		h.Append(Record{Kind: CommentaryRecord, Name: "COMMENT", Text: "filler"})
	}

	raw, err := h.Marshal()
	require.NoError(t, err)
	assert.Equal(t, 2*BlockSize, len(raw))

	br := newMemBlockReader(t, raw)
	_, blocks, err := ReadHeader(br, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), blocks)
}
