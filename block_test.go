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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlockReaderRejectsMisalignedLength(t *testing.T) {
	_, err := NewBlockReader(memReaderAt(make([]byte, 100)), 100)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTruncated))
}

func TestBlockReaderReadNBlocks(t *testing.T) {
	data := make([]byte, 3*BlockSize)
	for i := range data {
		data[i] = byte(i % 251)
	}
	br, err := NewBlockReader(memReaderAt(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(3), br.NumBlocks())

	buf, err := br.ReadNBlocks(1, 2)
	require.NoError(t, err)
	assert.Equal(t, data[BlockSize:3*BlockSize], buf)
}

func TestBlockReaderTruncated(t *testing.T) {
	br, err := NewBlockReader(memReaderAt(make([]byte, BlockSize)), BlockSize)
	require.NoError(t, err)

	_, err = br.ReadNBlocks(0, 2)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTruncated))
}

func TestBlockWriterSequentialOnly(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBlockWriter(&buf)

	require.NoError(t, bw.WriteBlock(0, make([]byte, BlockSize)))
	err := bw.WriteBlock(2, make([]byte, BlockSize))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvariantViolation))
}

func TestPadToBlockSize(t *testing.T) {
	data := make([]byte, BlockSize+10)
	padded := padToBlockSize(data, 0x20)
	assert.Equal(t, 2*BlockSize, len(padded))
	for _, b := range padded[BlockSize+10:] {
		assert.Equal(t, byte(0x20), b)
	}
}

func TestBlockCount(t *testing.T) {
	assert.Equal(t, int64(0), blockCount(0))
	assert.Equal(t, int64(1), blockCount(1))
	assert.Equal(t, int64(1), blockCount(BlockSize))
	assert.Equal(t, int64(2), blockCount(BlockSize+1))
}
